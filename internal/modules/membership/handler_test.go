package membership

import (
	"bytes"
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

func newTestRouter(t *testing.T, f *fixture, actor domain.Actor) *gin.Engine {
	t.Helper()
	s, err := NewScheduler(f.svc, "09:00", time.UTC)
	require.NoError(t, err)
	h := NewHandler(f.svc, s)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/api/v1")
	protected.Use(func(c *gin.Context) {
		c.Set("user_id", actor.UserID)
		c.Set("role", string(actor.Role))
	})
	h.RegisterRoutes(protected)
	h.RegisterInternalRoutes(r.Group("/api/v1/internal"))
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_ExpiryRun(t *testing.T) {
	f := newFixture(t)
	f.member(t, "m@test.local", "2024-06-10", domain.MembershipActive)
	r := newTestRouter(t, f, domain.Actor{})

	w := send(r, http.MethodPost, "/api/v1/internal/membership/expiry-run", `{"date":"2024-06-07"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"warned":1`)
	assert.Contains(t, w.Body.String(), `"date":"2024-06-07"`)

	// no body scans as of the service clock
	w = send(r, http.MethodPost, "/api/v1/internal/membership/expiry-run", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2024-06-05"`)

	w = send(r, http.MethodPost, "/api/v1/internal/membership/expiry-run", `{"date":"07.06.2024"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Extend(t *testing.T) {
	f := newFixture(t)
	u := f.member(t, "m@test.local", "2024-06-10", domain.MembershipActive)
	path := fmt.Sprintf("/api/v1/users/%d/membership/extend", u.ID)

	player := newTestRouter(t, f, domain.Actor{UserID: u.ID, Role: domain.RolePlayer})
	w := send(player, http.MethodPost, path, `{"days":30}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := newTestRouter(t, f, domain.Actor{UserID: 99, Role: domain.RoleAdmin})
	w = send(admin, http.MethodPost, path, `{"days":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(admin, http.MethodPost, path, `{"days":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "2024-07-10")
}

func TestHandler_PushToken(t *testing.T) {
	f := newFixture(t)
	u := f.member(t, "m@test.local", "", domain.MembershipActive)
	r := newTestRouter(t, f, domain.Actor{UserID: u.ID, Role: domain.RolePlayer})

	w := send(r, http.MethodPost, "/api/v1/users/me/push-token", `{"token":"ExponentPushToken[abc]"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodPost, "/api/v1/users/me/push-token", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
