package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"doctrack/internal/model"
	repoMocks "doctrack/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("existing profile", func(t *testing.T) {
		repo := new(repoMocks.MockProfileRepository)
		repo.On("FindByUserID", ctx, "user-1").Return(&model.Profile{ID: "p1", UserID: "user-1"}, nil)

		svc := NewProfileService(repo, nil, fixedClock, discardLogger())
		p, err := svc.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
		repo.AssertExpectations(t)
	})

	t.Run("first read creates signup defaults", func(t *testing.T) {
		repo := new(repoMocks.MockProfileRepository)
		repo.On("FindByUserID", ctx, "user-1").Return(nil, sql.ErrNoRows)
		repo.On("Upsert", ctx, mock.MatchedBy(func(p *model.Profile) bool {
			return p.ID != "" && p.UserID == "user-1" &&
				p.EmailNotificationsEnabled && p.PushNotificationsEnabled &&
				p.ExpiryRemindersEnabled && p.RenewalRemindersEnabled && !p.WeeklyDigestEnabled &&
				p.CreatedAt.Equal(fixedNow)
		})).Return(&model.Profile{ID: "new", UserID: "user-1"}, nil)

		svc := NewProfileService(repo, nil, fixedClock, discardLogger())
		p, err := svc.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "new", p.ID)
		repo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(repoMocks.MockProfileRepository)
		repo.On("FindByUserID", ctx, "user-1").Return(nil, errors.New("db fail"))

		svc := NewProfileService(repo, nil, fixedClock, discardLogger())
		_, err := svc.Get(ctx, "user-1")
		assert.EqualError(t, err, "db fail")
	})
}

func TestProfileService_Update(t *testing.T) {
	ctx := context.Background()
	off := false

	tests := []struct {
		name       string
		input      ProfileInput
		setupMocks func(repo *repoMocks.MockProfileRepository, audit *repoMocks.MockAuditRepository)
		wantErr    error
	}{
		{
			name:  "applies only provided fields",
			input: ProfileInput{Country: strPtr("  Kenya "), PushNotificationsEnabled: &off},
			setupMocks: func(repo *repoMocks.MockProfileRepository, audit *repoMocks.MockAuditRepository) {
				current := model.NewProfile("user-1")
				current.ID = "p1"
				current.DisplayName = strPtr("Ann")
				repo.On("FindByUserID", ctx, "user-1").Return(&current, nil)
				repo.On("Upsert", ctx, mock.MatchedBy(func(p *model.Profile) bool {
					return *p.Country == "Kenya" && *p.DisplayName == "Ann" &&
						!p.PushNotificationsEnabled && p.EmailNotificationsEnabled && p.UpdatedAt.Equal(fixedNow)
				})).Return(&model.Profile{ID: "p1"}, nil)
				audit.On("Append", ctx, mock.MatchedBy(func(l *model.AuditLog) bool {
					return l.EntityType == "profile" && l.Action == "update"
				})).Return(nil)
			},
		},
		{
			name:       "country too long",
			input:      ProfileInput{Country: strPtr(string(make([]byte, 101)))},
			setupMocks: func(repo *repoMocks.MockProfileRepository, audit *repoMocks.MockAuditRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "invalid email",
			input:      ProfileInput{Email: strPtr("not-an-email")},
			setupMocks: func(repo *repoMocks.MockProfileRepository, audit *repoMocks.MockAuditRepository) {},
			wantErr:    ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(repoMocks.MockProfileRepository)
			audit := new(repoMocks.MockAuditRepository)
			tt.setupMocks(repo, audit)

			svc := NewProfileService(repo, audit, fixedClock, discardLogger())
			p, err := svc.Update(ctx, "user-1", tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, p)
			}
			repo.AssertExpectations(t)
			audit.AssertExpectations(t)
		})
	}
}
