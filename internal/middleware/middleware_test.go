package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tapcard-backend/internal/config"
)

type stubVerifier map[string]*auth.Token

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token rejected")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter() *gin.Engine {
	verifier := stubVerifier{
		"good": {UID: "alice", Claims: map[string]interface{}{
			"email":   "alice@example.com",
			"name":    "Alice",
			"picture": "https://idp.example.com/alice.jpg",
		}},
		"bare": {UID: "bob"},
	}
	router := gin.New()
	mw := NewAuthMiddleware(verifier, zap.NewNop())
	router.GET("/me", mw.VerifyToken(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"uid":     c.GetString(ContextUserID),
			"email":   c.GetString(ContextUserEmail),
			"name":    c.GetString(ContextUserDisplayName),
			"picture": c.GetString(ContextUserPhotoURL),
		})
	})
	return router
}

func TestVerifyTokenRejects(t *testing.T) {
	router := newAuthRouter()
	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic good",
		"no token":       "Bearer",
		"unknown token":  "Bearer forged",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestVerifyTokenSetsClaims(t *testing.T) {
	router := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"uid":     "alice",
		"email":   "alice@example.com",
		"name":    "Alice",
		"picture": "https://idp.example.com/alice.jpg",
	}, body)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bare")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bob", body["uid"])
	assert.Empty(t, body["email"])
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(zap.NewNop()), RecoveryMiddleware(zap.NewNop()))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware(&config.Config{ClientURL: "https://app.example.com/, https://admin.example.com"}))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Panics(t, func() { CORSMiddleware(&config.Config{}) })
}
