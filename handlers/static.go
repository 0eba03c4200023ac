package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/terrenospy/terrenospy/pkg/logger"
)

// mimeTypes maps file extensions to content types. Unknown extensions fall
// back to a generic binary type.
var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".json":  "application/json; charset=utf-8",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
}

// RegisterStatic installs the static file fallback: any path not claimed by
// the API is resolved under baseDir. Paths escaping the base directory are
// rejected with 403, missing files with 404.
func RegisterStatic(r *gin.Engine, baseDir string) {
	r.NoRoute(StaticHandler(baseDir))
}

// StaticHandler serves one file per request, the way the site has always
// been hosted: read whole file, set the content type from the extension.
func StaticHandler(baseDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		if reqPath == "/" {
			reqPath = "/index.html"
		}

		// reject traversal before any path cleaning can hide it
		for _, seg := range strings.Split(reqPath, "/") {
			if seg == ".." {
				c.String(http.StatusForbidden, "Forbidden")
				return
			}
		}

		filePath := filepath.Join(baseDir, filepath.FromSlash(reqPath))
		absBase, err := filepath.Abs(baseDir)
		if err != nil {
			c.String(http.StatusInternalServerError, "Internal Server Error")
			return
		}
		absFile, err := filepath.Abs(filePath)
		if err != nil || (absFile != absBase && !strings.HasPrefix(absFile, absBase+string(filepath.Separator))) {
			c.String(http.StatusForbidden, "Forbidden")
			return
		}

		info, err := os.Stat(absFile)
		if err != nil || !info.Mode().IsRegular() {
			c.String(http.StatusNotFound, "Not Found")
			return
		}

		data, err := os.ReadFile(absFile)
		if err != nil {
			logger.Errorf("error reading file %s: %v", absFile, err)
			c.String(http.StatusInternalServerError, "Internal Server Error")
			return
		}
		ext := strings.ToLower(filepath.Ext(absFile))
		contentType, ok := mimeTypes[ext]
		if !ok {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, data)
	}
}
