package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courtbooking/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	june1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("dates", "bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"quota conflict", &domain.ConflictError{Kind: domain.ConflictQuota, Date: june1, UserID: 2}, http.StatusConflict, "CONFLICT"},
		{"wrapped conflict", fmt.Errorf("create: %w", &domain.ConflictError{Kind: domain.ConflictSlot, Date: june1, CourtID: 1}), http.StatusConflict, "CONFLICT"},
		{"not found", &domain.NotFoundError{Resource: "booking", ID: 1}, http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", &domain.AuthorizationError{UserID: 1, Action: "x"}, http.StatusForbidden, "FORBIDDEN"},
		{"sentinel", fmt.Errorf("wrap: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			FromError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Success bool `json:"success"`
				Error   struct {
					Code    string         `json:"code"`
					Message string         `json:"message"`
					Details map[string]any `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Error.Message, "disk")
			}
		})
	}
}

func TestFromError_ConflictDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	FromError(c, &domain.ConflictError{
		Kind:      domain.ConflictSlot,
		Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CourtID:   1,
		Window:    "10:00-11:00",
		BookingID: 9,
	})

	var body struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "slot", body.Error.Details["kind"])
	assert.Equal(t, "2024-06-01", body.Error.Details["date"])
	assert.Equal(t, "10:00-11:00", body.Error.Details["window"])
	assert.EqualValues(t, 9, body.Error.Details["booking_id"])
	assert.NotContains(t, body.Error.Details, "user_id")
}
