package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doctrack/internal/expiry"
	"doctrack/internal/model"
	"doctrack/internal/service"
	serviceMocks "doctrack/internal/service/mocks"
	"doctrack/internal/storage"
)

func sampleDocument(id string) model.Document {
	return model.Document{
		ID:           id,
		UserID:       testUserID,
		Name:         "Driver's License",
		DocumentType: model.DocumentTypeLicense,
		ExpiryDate:   model.NewDate(2025, time.March, 1),
		CreatedAt:    time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC),
	}
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.DocumentListResult{
			Items: []model.Document{sampleDocument(uuid.NewString())},
			Total: 1,
		}
		q := service.ListQuery{Search: "license", Type: "passport", Status: "expired", Sort: "name"}
		mockSvc.On("List", mock.Anything, testUserID, q).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?search=license&type=passport&status=expired&sort=name", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DocumentListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid filter", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUserID, service.ListQuery{Sort: "size"}).
			Return(nil, fmt.Errorf("%w: unsupported sort \"size\"", service.ErrValidation)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents?sort=size", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, `unsupported sort "size"`, body.Error.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUserID, service.ListQuery{}).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Post("/documents", CreateDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		doc := sampleDocument(uuid.NewString())
		mockSvc.On("Create", mock.Anything, testUserID, mock.MatchedBy(func(in service.DocumentInput) bool {
			return in.Name == "Driver's License" &&
				in.DocumentType == model.DocumentTypeLicense &&
				in.ExpiryDate.Equal(model.NewDate(2025, time.March, 1)) &&
				in.RenewalPeriodDays != nil && *in.RenewalPeriodDays == 60
		})).Return(&doc, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/documents", map[string]any{
			"name":                "Driver's License",
			"document_type":       "license",
			"expiry_date":         "2025-03-01",
			"renewal_period_days": 60,
		}))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, doc.ID, result.ID)
		assert.Equal(t, "2025-03-01", result.ExpiryDate.String())
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/documents", map[string]any{
			"name": "x", "document_type": "license", "expiry_date": "01/03/2025",
		}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, testUserID, mock.Anything).
			Return(nil, fmt.Errorf("%w: renewal_period_days must be at most 365", service.ErrValidation)).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/documents", map[string]any{
			"name": "x", "document_type": "license", "expiry_date": "2025-03-01", "renewal_period_days": 400,
		}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "renewal_period_days must be at most 365", body.Error.Message)
		mockSvc.AssertExpectations(t)
	})
}

func TestBulkCreateDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Post("/documents/bulk", BulkCreateDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		docs := []model.Document{sampleDocument(uuid.NewString()), sampleDocument(uuid.NewString())}
		mockSvc.On("BulkCreate", mock.Anything, testUserID, mock.MatchedBy(func(in []service.DocumentInput) bool {
			return len(in) == 2
		})).Return(docs, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/documents/bulk", []map[string]any{
			{"name": "A", "document_type": "permit", "expiry_date": "2025-05-01"},
			{"name": "B", "document_type": "other", "expiry_date": "2025-06-01"},
		}))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result []model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result, 2)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty batch", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/documents/bulk", []map[string]any{}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
	})
}

func TestExportDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	now := func() time.Time { return time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC) }
	app := newTestApp()
	app.Get("/documents/export", ExportDocuments(mockSvc, now))

	doc := sampleDocument(uuid.NewString())
	list := &service.DocumentListResult{Items: []model.Document{doc}, Total: 1}

	t.Run("csv by default", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUserID, service.ListQuery{}).Return(list, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/export", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="documents_2025-01-01.csv"`, resp.Header.Get("Content-Disposition"))
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

		body, _ := io.ReadAll(resp.Body)
		lines := strings.Split(string(body), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "Name,Type,Issuing Authority,Expiry Date,Renewal Period (Days),Notes,Created At", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], `"Driver's License","license"`))
		mockSvc.AssertExpectations(t)
	})

	t.Run("json keeps filters", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUserID, service.ListQuery{Status: "expired"}).Return(list, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/export?format=json&status=expired", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="documents_2025-01-01.json"`, resp.Header.Get("Content-Disposition"))

		var rows []model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
		require.Len(t, rows, 1)
		assert.Equal(t, doc.ID, rows[0].ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown format", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/export?format=xml", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_FORMAT", decodeError(t, resp).Error.Code)
	})
}

func TestDocumentStats(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/stats", DocumentStats(mockSvc))

	mockSvc.On("Stats", mock.Anything, testUserID).Return(&expiry.Stats{Total: 3, Expired: 1, ExpiringSoon: 1, Valid: 1}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/stats", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var stats expiry.Stats
	json.NewDecoder(resp.Body).Decode(&stats)
	assert.Equal(t, expiry.Stats{Total: 3, Expired: 1, ExpiringSoon: 1, Valid: 1}, stats)
	mockSvc.AssertExpectations(t)
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		doc := sampleDocument(id)
		mockSvc.On("Get", mock.Anything, testUserID, id).Return(&doc, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, testUserID, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
		assert.Equal(t, "document not found", body.Error.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents/invalid-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, testUserID, id).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestUpdateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Put("/documents/:id", UpdateDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		doc := sampleDocument(id)
		doc.ExpiryDate = model.NewDate(2030, time.March, 1)
		mockSvc.On("Update", mock.Anything, testUserID, id, mock.MatchedBy(func(in service.DocumentInput) bool {
			return in.ExpiryDate.Equal(model.NewDate(2030, time.March, 1))
		})).Return(&doc, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/documents/"+id, map[string]any{
			"name": "Driver's License", "document_type": "license", "expiry_date": "2030-03-01",
		}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("forbidden for viewers", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Update", mock.Anything, testUserID, id, mock.Anything).Return(nil, service.ErrForbidden).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPut, "/documents/"+id, map[string]any{
			"name": "x", "document_type": "license", "expiry_date": "2030-03-01",
		}))

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPut, "/documents/nope", map[string]any{}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Delete("/documents/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, testUserID, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, testUserID, id).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, testUserID, id).Return(errors.New("delete error")).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func imageUpload(t *testing.T, target, contentType string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="scan.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	part.Write(data)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadDocumentImage(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Post("/documents/:id/image", UploadDocumentImage(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		doc := sampleDocument(id)
		path := "user/" + id + ".jpg"
		doc.ImagePath = &path
		mockSvc.On("AttachImage", mock.Anything, testUserID, id, mock.Anything, "image/jpeg", int64(5)).Return(&doc, nil).Once()

		resp, _ := app.Test(imageUpload(t, "/documents/"+id+"/image", "image/jpeg", []byte("jpeg!")))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		require.NotNil(t, result.ImagePath)
		assert.Equal(t, path, *result.ImagePath)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unsupported type", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("AttachImage", mock.Anything, testUserID, id, mock.Anything, "application/pdf", mock.Anything).
			Return(nil, fmt.Errorf("%w: %v", service.ErrValidation, storage.ErrUnsupportedImageType)).Once()

		resp, _ := app.Test(imageUpload(t, "/documents/"+id+"/image", "application/pdf", []byte("%PDF")))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/documents/"+uuid.NewString()+"/image", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})
}

func TestDocumentImageURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id/image", DocumentImageURL(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("ImageURL", mock.Anything, testUserID, id).Return("https://minio.local/signed", nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/image", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://minio.local/signed", body["url"])
		assert.Equal(t, float64(900), body["expires_in"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("no image", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("ImageURL", mock.Anything, testUserID, id).Return("", service.ErrNoImage).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/image", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "document has no image", decodeError(t, resp).Error.Message)
		mockSvc.AssertExpectations(t)
	})
}

func TestDocumentImageRaw(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id/image/raw", DocumentImageRaw(mockSvc))

	id := uuid.NewString()
	info := storage.ObjectInfo{Size: 4, ContentType: "image/png"}
	mockSvc.On("OpenImage", mock.Anything, testUserID, id).Return(io.NopCloser(strings.NewReader("\x89PNG")), info, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/image/raw", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "\x89PNG", string(body))
	mockSvc.AssertExpectations(t)
}

func TestDocumentReminders(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id/reminders", DocumentReminders(mockSvc))

	id := uuid.NewString()
	reminders := []model.Reminder{
		{ID: uuid.NewString(), DocumentID: id, ReminderDate: model.NewDate(2025, time.January, 30)},
		{ID: uuid.NewString(), DocumentID: id, ReminderDate: model.NewDate(2025, time.February, 15)},
	}
	mockSvc.On("Reminders", mock.Anything, testUserID, id).Return(reminders, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/reminders", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result []model.Reminder
	json.NewDecoder(resp.Body).Decode(&result)
	require.Len(t, result, 2)
	assert.Equal(t, "2025-01-30", result[0].ReminderDate.String())
	mockSvc.AssertExpectations(t)
}

func TestDocumentHistory(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := newTestApp()
	app.Get("/documents/:id/history", DocumentHistory(mockSvc))

	id := uuid.NewString()
	mockSvc.On("History", mock.Anything, testUserID, id).Return([]model.DocumentHistory{
		{ID: uuid.NewString(), DocumentID: id, Action: model.HistoryRenewed},
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+id+"/history", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result []model.DocumentHistory
	json.NewDecoder(resp.Body).Decode(&result)
	require.Len(t, result, 1)
	assert.Equal(t, model.HistoryRenewed, result[0].Action)
	mockSvc.AssertExpectations(t)
}
