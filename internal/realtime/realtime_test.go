package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	payload, err := Encode(ChangeEvent{Type: EventUpdate, DocumentID: "doc-1", At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"UPDATE","document_id":"doc-1","at":"2026-10-16T08:00:00Z"}`, string(payload))

	ev, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, EventUpdate, ev.Type)
	assert.Equal(t, "doc-1", ev.DocumentID)
	assert.True(t, at.Equal(ev.At))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"TRUNCATE","document_id":"doc-1"}`))
	assert.ErrorContains(t, err, "unknown type")
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "doctrack:documents:user-1", Channel("user-1"))
	assert.NotEqual(t, Channel("user-1"), Channel("user-2"))
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	assert.NoError(t, p.Publish(context.Background(), "user-1", ChangeEvent{Type: EventInsert}))
}
