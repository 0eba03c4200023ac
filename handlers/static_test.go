package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newStaticRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>Terrenos PY</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hola')"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.bin"), []byte{0x01, 0x02}, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "styles.css"), []byte("body{}"), 0644))

	r := gin.New()
	RegisterStatic(r, dir)
	return r, dir
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestStaticRootServesIndex(t *testing.T) {
	r, _ := newStaticRouter(t)
	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "Terrenos PY")
}

func TestStaticContentTypes(t *testing.T) {
	r, _ := newStaticRouter(t)

	w := get(r, "/app.js")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/javascript; charset=utf-8", w.Header().Get("Content-Type"))

	w = get(r, "/css/styles.css")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/css; charset=utf-8", w.Header().Get("Content-Type"))

	// unknown extension falls back to the generic binary type
	w = get(r, "/logo.bin")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
}

func TestStaticTraversalForbidden(t *testing.T) {
	r, dir := newStaticRouter(t)

	secret := filepath.Join(filepath.Dir(dir), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("nope"), 0644))

	for _, path := range []string{
		"/../secret.txt",
		"/css/../../secret.txt",
		"/..",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		// bypass httptest's own path normalization
		req.URL.Path = path
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusForbidden, w.Code, "path=%s", path)
		require.Equal(t, "Forbidden", w.Body.String())
	}
}

func TestStaticMissingFile(t *testing.T) {
	r, _ := newStaticRouter(t)
	w := get(r, "/no-such-page.html")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Not Found", w.Body.String())
}

func TestStaticDirectoryIsNotFound(t *testing.T) {
	r, _ := newStaticRouter(t)
	w := get(r, "/css")
	require.Equal(t, http.StatusNotFound, w.Code)
}
