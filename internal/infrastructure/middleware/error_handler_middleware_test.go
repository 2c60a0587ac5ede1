package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "relaycast/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serveWithErrorHandler(t *testing.T, handler gin.HandlerFunc) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RecoveryMiddleware(zap.NewNop().Sugar()))
	router.Use(ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	router.GET("/boom", handler)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandler_AppError(t *testing.T) {
	code, body := serveWithErrorHandler(t, func(c *gin.Context) {
		c.Error(apperrors.NewNotFoundError("stream"))
	})

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", body["error"])
	assert.Equal(t, "stream not found", body["message"])
}

func TestErrorHandler_PlainError(t *testing.T) {
	code, body := serveWithErrorHandler(t, func(c *gin.Context) {
		c.Error(errors.New("disk on fire"))
	})

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "INTERNAL_ERROR", body["error"])
	// Internal details never leak to the client.
	assert.NotContains(t, body["message"], "disk")
}

func TestRecovery_PanicBecomesInternalError(t *testing.T) {
	code, body := serveWithErrorHandler(t, func(c *gin.Context) {
		panic("unexpected")
	})

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "INTERNAL_ERROR", body["error"])
}
