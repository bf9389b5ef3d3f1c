package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func request(origins []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/verify", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(method, "/verify", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSOpenWithoutCredentials(t *testing.T) {
	w := request(nil, http.MethodGet, "https://employer.example")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Verification-Short-Code")
}

func TestCORSAllowList(t *testing.T) {
	allowed := []string{"https://staff.example/"}

	w := request(allowed, http.MethodGet, "https://staff.example")
	assert.Equal(t, "https://staff.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = request(allowed, http.MethodGet, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	w := request(nil, http.MethodOptions, "https://employer.example")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
