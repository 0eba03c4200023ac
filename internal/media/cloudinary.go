package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/terrenospy/terrenospy/internal/config"
	"github.com/terrenospy/terrenospy/pkg/metrics"
)

// CloudinaryUploader pushes payloads to a Cloudinary-style upload API using
// unsigned preset uploads. One attempt per item; transport failures, non-2xx
// statuses and malformed bodies all collapse into a single error.
type CloudinaryUploader struct {
	cloudName string
	preset    string
	folder    string
	apiKey    string // optional; unsigned presets work without it
	baseURL   string // overridable in tests
	hc        *http.Client
}

const cloudinaryHostedPrefix = "https://res.cloudinary.com/"

func NewCloudinary(cfg config.CloudinaryConfig, hc *http.Client) *CloudinaryUploader {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &CloudinaryUploader{
		cloudName: cfg.CloudName,
		preset:    cfg.UploadPreset,
		folder:    cfg.Folder,
		apiKey:    cfg.APIKey,
		baseURL:   "https://api.cloudinary.com/v1_1",
		hc:        hc,
	}
}

// Configured reports whether a usable cloud name is present.
func (u *CloudinaryUploader) Configured() bool {
	return u.cloudName != "" && u.cloudName != "TU_CLOUD_NAME"
}

// SetBaseURL points the uploader at a different API root. Tests use this
// with an httptest server.
func (u *CloudinaryUploader) SetBaseURL(s string) { u.baseURL = strings.TrimRight(s, "/") }

func (u *CloudinaryUploader) Hosted(url string) bool {
	return strings.HasPrefix(url, cloudinaryHostedPrefix)
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
}

func (u *CloudinaryUploader) Upload(ctx context.Context, p Payload) (Result, error) {
	if err := Validate(p); err != nil {
		return Result{}, err
	}
	// idempotent re-upload avoidance
	if u.Hosted(p.Data) {
		return Result{URL: p.Data, ResourceType: p.Kind}, nil
	}
	if !IsDataURI(p.Data) {
		// a URL hosted elsewhere is stored as-is
		return Result{URL: p.Data, ResourceType: p.Kind}, nil
	}
	_, data, err := DecodeDataURI(p.Data)
	if err != nil {
		return Result{}, err
	}

	name := p.Filename
	if name == "" {
		name = fmt.Sprintf("media_%d.%s", time.Now().UnixMilli(), FormatFromDataURI(p.Data))
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return Result{}, err
	}
	if _, err := fw.Write(data); err != nil {
		return Result{}, err
	}
	_ = mw.WriteField("upload_preset", u.preset)
	_ = mw.WriteField("cloud_name", u.cloudName)
	_ = mw.WriteField("folder", u.folder)
	if u.apiKey != "" {
		_ = mw.WriteField("api_key", u.apiKey)
	}
	if err := mw.Close(); err != nil {
		return Result{}, err
	}

	endpoint := fmt.Sprintf("%s/%s/%s/upload", u.baseURL, u.cloudName, p.Kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.hc.Do(req)
	if err != nil {
		metrics.MediaUploads.WithLabelValues("cloudinary", "error").Inc()
		return Result{}, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		metrics.MediaUploads.WithLabelValues("cloudinary", "error").Inc()
		return Result{}, fmt.Errorf("upload %s: HTTP %d: %s", name, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var cr cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		metrics.MediaUploads.WithLabelValues("cloudinary", "error").Inc()
		return Result{}, fmt.Errorf("upload %s: decode response: %w", name, err)
	}
	if cr.SecureURL == "" {
		metrics.MediaUploads.WithLabelValues("cloudinary", "error").Inc()
		return Result{}, fmt.Errorf("upload %s: response missing secure_url", name)
	}
	metrics.MediaUploads.WithLabelValues("cloudinary", "ok").Inc()
	return Result{URL: cr.SecureURL, PublicID: cr.PublicID, Format: cr.Format, ResourceType: p.Kind}, nil
}
