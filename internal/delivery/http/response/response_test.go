package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestSuccess(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Success(c, http.StatusCreated, map[string]string{"id": "42"}, ""))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(http.StatusCreated), body["code"])
	assert.Equal(t, "Success", body["message"])
	assert.Equal(t, map[string]any{"id": "42"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestError_KeepsDetailsForClientErrors(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, BadRequest(c, "VALIDATION_FAILED", "Input validation failed", []string{"email"}))

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "data")
	assert.Equal(t, map[string]any{"code": "VALIDATION_FAILED", "details": []any{"email"}}, body["error"])
}

func TestError_DropsDetails(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			c, rec := newContext()

			require.NoError(t, Error(c, status, "CODE", "", "secret detail"))

			body := decode(t, rec)
			assert.Equal(t, http.StatusText(status), body["message"])
			assert.Equal(t, map[string]any{"code": "CODE"}, body["error"])
		})
	}
}
