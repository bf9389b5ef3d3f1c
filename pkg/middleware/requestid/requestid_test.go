package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, header string) (string, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var fromGin, fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(headerKey, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header().Get(headerKey), fromGin, fromCtx
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	echoed, fromGin, fromCtx := serve(t, "batch-42")
	assert.Equal(t, "batch-42", echoed)
	assert.Equal(t, "batch-42", fromGin)
	assert.Equal(t, "batch-42", fromCtx)
}

func TestMiddlewareReplacesUnsafeIDs(t *testing.T) {
	for _, header := range []string{"", strings.Repeat("a", 65), "bad id", "line\nbreak"} {
		echoed, fromGin, fromCtx := serve(t, header)
		_, err := uuid.Parse(echoed)
		require.NoError(t, err, "header %q", header)
		assert.Equal(t, echoed, fromGin)
		assert.Equal(t, echoed, fromCtx)
	}
}
