package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoBody(t *testing.T, method, body string) (int, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Handle(method, "/", SanitizeAndCleanInputMiddleware(), func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		c.String(http.StatusOK, string(raw))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, "/", strings.NewReader(body)))
	return w.Code, w.Body.String()
}

func TestSanitizeNestedValues(t *testing.T) {
	code, body := echoBody(t, http.MethodPost,
		`{"name":"<b>Studio</b>","header":{"tagline":"<i>hi</i>"},"tags":["<script>x</script>ok",3]}`)

	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"name":"Studio","header":{"tagline":"hi"},"tags":["ok",3]}`, body)
}

func TestSanitizeRejectsMalformedJSON(t *testing.T) {
	code, _ := echoBody(t, http.MethodPost, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSanitizePassesEmptyBodyAndReads(t *testing.T) {
	code, body := echoBody(t, http.MethodPost, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body)

	code, body = echoBody(t, http.MethodGet, `<b>untouched</b>`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `<b>untouched</b>`, body)
}
