package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/secrets/internal/web/response"
)

func TestNewMeta_GeneratesRequestID(t *testing.T) {
	meta := response.NewMeta("")

	_, err := uuid.Parse(meta.RequestID)
	assert.NoError(t, err)
	_, err = time.Parse(time.RFC3339, meta.Timestamp)
	assert.NoError(t, err)
}

func TestNewMeta_KeepsRequestID(t *testing.T) {
	assert.Equal(t, "req-1", response.NewMeta("req-1").RequestID)
}

func TestSuccess(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()

	// Act
	response.Success(w, http.StatusOK, map[string]string{"status": "healthy"}, "req-1")

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "healthy", env["data"].(map[string]interface{})["status"])
	assert.Nil(t, env["error"])
	assert.Equal(t, "req-1", env["meta"].(map[string]interface{})["requestId"])
}
