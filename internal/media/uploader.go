// Package media converts client-held image/video payloads into durable
// hosted URLs. Two backends exist (a Cloudinary-style HTTP API and a
// self-hosted MinIO bucket) plus a degraded-mode passthrough used when no
// host is configured.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("media type must be image or video")
	ErrTooLarge        = errors.New("media payload exceeds size limit")
)

// Byte ceilings per media kind.
const (
	MaxImageBytes = 10 << 20  // 10 MiB
	MaxVideoBytes = 100 << 20 // 100 MiB
)

// Payload is a single item to upload: a data URI (inline base64), or a URL
// that may already be hosted.
type Payload struct {
	Kind     string // terreno.MediaTypeImage | terreno.MediaTypeVideo
	Data     string
	Filename string
}

// Result is the uniform outcome of an upload attempt.
type Result struct {
	URL          string `json:"url"`
	PublicID     string `json:"public_id,omitempty"`
	Format       string `json:"format,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
}

// ProgressFunc is called after each item of a batch with (done, total).
// Purely observational; it never affects control flow.
type ProgressFunc func(done, total int)

// Uploader is the single-item upload contract. Implementations perform one
// attempt and return an error for anything that went wrong; the caller
// decides the fallback.
type Uploader interface {
	Upload(ctx context.Context, p Payload) (Result, error)
	// Hosted reports whether url already points at this backend, in which
	// case re-upload is skipped.
	Hosted(url string) bool
}

// UploadMany uploads payloads strictly sequentially, preserving input order
// in the output. A failed item falls back to its original inline payload
// rather than aborting the batch. progress may be nil.
func UploadMany(ctx context.Context, up Uploader, payloads []Payload, progress ProgressFunc) []Result {
	out := make([]Result, 0, len(payloads))
	for i, p := range payloads {
		r, err := up.Upload(ctx, p)
		if err != nil {
			// retain the inline payload so the caller can still persist something usable
			r = Result{URL: p.Data, ResourceType: p.Kind}
		}
		out = append(out, r)
		if progress != nil {
			progress(i+1, len(payloads))
		}
	}
	return out
}

// Validate applies the kind and size checks shared by every backend.
func Validate(p Payload) error {
	var limit int64
	switch p.Kind {
	case "image":
		limit = MaxImageBytes
	case "video":
		limit = MaxVideoBytes
	default:
		return ErrUnsupportedType
	}
	if IsDataURI(p.Data) {
		if n := decodedSize(p.Data); n > limit {
			return fmt.Errorf("%w: %d bytes over %d", ErrTooLarge, n, limit)
		}
	}
	return nil
}

// IsDataURI reports whether s is an inline base64 data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI splits a data URI into its MIME type and decoded bytes.
func DecodeDataURI(s string) (mimeType string, data []byte, err error) {
	if !IsDataURI(s) {
		return "", nil, fmt.Errorf("not a data URI")
	}
	rest := strings.TrimPrefix(s, "data:")
	idx := strings.Index(rest, ",")
	if idx < 0 {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	meta, enc := rest[:idx], rest[idx+1:]
	mimeType = strings.TrimSuffix(meta, ";base64")
	data, err = base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mimeType, data, nil
}

// FormatFromDataURI guesses a file extension from the data URI MIME type.
func FormatFromDataURI(s string) string {
	rest := strings.TrimPrefix(s, "data:")
	if idx := strings.Index(rest, ";"); idx > 0 {
		rest = rest[:idx]
	} else if idx := strings.Index(rest, ","); idx > 0 {
		rest = rest[:idx]
	}
	if slash := strings.Index(rest, "/"); slash > 0 && slash < len(rest)-1 {
		return rest[slash+1:]
	}
	return "jpg"
}

// decodedSize estimates the decoded byte count of a data URI without
// decoding it.
func decodedSize(s string) int64 {
	idx := strings.Index(s, ",")
	if idx < 0 {
		return 0
	}
	enc := s[idx+1:]
	padding := int64(strings.Count(enc[max(0, len(enc)-2):], "="))
	return int64(len(enc))*3/4 - padding
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Passthrough is the degraded-mode uploader used when no external host is
// configured: validation still applies, then the original payload is
// returned unchanged as a success. No network call is made.
type Passthrough struct{}

func (Passthrough) Upload(_ context.Context, p Payload) (Result, error) {
	if err := Validate(p); err != nil {
		return Result{}, err
	}
	return Result{URL: p.Data, ResourceType: p.Kind}, nil
}

func (Passthrough) Hosted(string) bool { return false }
