package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"procurement/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"name": "Robin",
		"exp":  exp.Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return tok
}

func setupRouter(auth *Auth, required ...string) (*gin.Engine, *service.Actor) {
	gin.SetMode(gin.TestMode)
	seen := &service.Actor{}
	r := gin.New()
	r.GET("/guarded", auth.Authenticate(), RequirePermission(required...), func(c *gin.Context) {
		*seen = service.ActorFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r, seen
}

func TestAuthenticateAndRequirePermission(t *testing.T) {
	userID := uuid.New()
	var loads int32
	auth := NewAuth(testSecret, func(_ context.Context, id uuid.UUID) ([]string, error) {
		atomic.AddInt32(&loads, 1)
		require.Equal(t, userID, id)
		return []string{"read_rfq", "create_rfq"}, nil
	}, time.Minute, false)

	tests := []struct {
		name     string
		header   string
		required []string
		want     int
	}{
		{"missing token", "", []string{"read_rfq"}, http.StatusUnauthorized},
		{"wrong scheme", "Token abc", []string{"read_rfq"}, http.StatusUnauthorized},
		{"garbage token", "Bearer abc", []string{"read_rfq"}, http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, userID.String(), time.Now().Add(-time.Hour)), []string{"read_rfq"}, http.StatusUnauthorized},
		{"missing permission", "Bearer " + signToken(t, userID.String(), time.Now().Add(time.Hour)), []string{"award_quotation"}, http.StatusForbidden},
		{"allowed", "Bearer " + signToken(t, userID.String(), time.Now().Add(time.Hour)), []string{"read_rfq", "create_rfq"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(auth, tt.required...)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			require.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	require.EqualValues(t, 1, atomic.LoadInt32(&loads), "permissions are cached per user")
	auth.ClearPermissionCache(&userID)

	r, seen := setupRouter(auth, "read_rfq")
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, userID.String(), time.Now().Add(time.Hour))})
	req.Header.Set("User-Agent", "ua-test")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 2, atomic.LoadInt32(&loads))
	require.Equal(t, "Robin", seen.Name)
	require.Equal(t, "ua-test", seen.UserAgent)
	require.Equal(t, userID, *seen.ID)
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.NewString()}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, _, err = ParseToken(testSecret, tok)
	require.Error(t, err)
}
