package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/terrenospy/terrenospy/internal/config"
)

func TestSiteConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Admin: config.AdminConfig{Username: "admin", Password: "never-exposed", Whatsapp: "595985282935"},
		Cloudinary: config.CloudinaryConfig{
			CloudName:    "demo",
			UploadPreset: "terrenos_py",
			APIKey:       "749499658289531",
			Folder:       "terrenos_py",
		},
	}
	r := gin.New()
	NewSiteHandler(cfg).Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Whatsapp   string `json:"whatsapp"`
		Cloudinary struct {
			CloudName    string `json:"cloudName"`
			UploadPreset string `json:"uploadPreset"`
			Folder       string `json:"folder"`
		} `json:"cloudinary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "595985282935", resp.Whatsapp)
	require.Equal(t, "demo", resp.Cloudinary.CloudName)
	require.Equal(t, "terrenos_py", resp.Cloudinary.UploadPreset)

	// credentials stay out of the public config
	require.NotContains(t, w.Body.String(), "never-exposed")
	require.NotContains(t, w.Body.String(), "749499658289531")
}
