package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakdcards.com/app/internal/auth"
	"stakdcards.com/app/internal/shared/apperr"
)

func init() { gin.SetMode(gin.TestMode) }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newEngine(v *auth.Verifier, guards ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(quietLogger()), Recovery(quietLogger()), Authenticate(v))
	h := append(guards, func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/x", h...)
	return r
}

func token(t *testing.T, v *auth.Verifier, role string) string {
	t.Helper()
	tok, err := v.Sign(auth.Claims{
		AppMetadata:      auth.AppMetadata{Role: role},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAdmin(t *testing.T) {
	v := auth.NewVerifier("secret")
	r := newEngine(v, RequireAdmin("key-123"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderAdminKey, "key-123")
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x?admin_key=key-123", nil)
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderAdminKey, "wrong")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, v, "admin"))
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, v, "customer"))
	assert.Equal(t, http.StatusForbidden, do(r, req).Code)
}

func TestRequireAdmin_EmptyKeyNeverMatches(t *testing.T) {
	r := newEngine(auth.NewVerifier(""), RequireAdmin(""))
	req := httptest.NewRequest(http.MethodGet, "/x?admin_key=", nil)
	req.Header.Set(HeaderAdminKey, "")
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestRequireUser(t *testing.T) {
	v := auth.NewVerifier("secret")
	r := newEngine(v, RequireUser())

	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "bearer "+token(t, v, ""))
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, auth.NewVerifier("other"), ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestRequireCronSecret(t *testing.T) {
	r := newEngine(auth.NewVerifier(""), RequireCronSecret("cron-s"))

	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer cron-s")
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderCronToken, "cron-s")
	assert.Equal(t, http.StatusOK, do(r, req).Code)

	unset := newEngine(auth.NewVerifier(""), RequireCronSecret(""))
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := do(unset, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "server_misconfigured")
}

func TestErrorHandler_Payload(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(quietLogger()))
	r.GET("/bad", func(c *gin.Context) {
		Fail(c, apperr.InvalidErr("Invalid input.", map[string]string{"email": "required"}).WithCode("validation_failed"))
	})
	r.GET("/boom", func(c *gin.Context) { Fail(c, errors.New("db exploded")) })

	req := httptest.NewRequest(http.MethodGet, "/bad", nil)
	req.Header.Set(HeaderRequestID, "req-abc")
	w := do(r, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid input.", body["error"])
	assert.Equal(t, "validation_failed", body["code"])
	assert.Equal(t, "req-abc", body["request_id"])
	assert.Equal(t, map[string]any{"email": "required"}, body["fields"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db exploded")
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(quietLogger()), Recovery(quietLogger()))
	r.GET("/panic", func(c *gin.Context) { panic("nope") })

	w := do(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "request_id")
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := do(r, req)
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "bad id\n")
	w = do(r, req)
	assert.NotEqual(t, "bad id\n", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(HeaderRequestID))
}

func TestActor(t *testing.T) {
	v := auth.NewVerifier("secret")
	r := gin.New()
	r.Use(ErrorHandler(quietLogger()), Authenticate(v))
	r.GET("/x", RequireAdmin("key-123"), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderAdminKey, "key-123")
	assert.Equal(t, ActorAdminKey, do(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, v, "admin"))
	assert.Equal(t, "user:user-1", do(r, req).Body.String())
}
