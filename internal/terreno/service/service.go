package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/terrenospy/terrenospy/internal/cache"
	"github.com/terrenospy/terrenospy/internal/media"
	"github.com/terrenospy/terrenospy/internal/store"
	"github.com/terrenospy/terrenospy/internal/terreno"
	"github.com/terrenospy/terrenospy/internal/terreno/repository"
	"github.com/terrenospy/terrenospy/pkg/logger"
	"github.com/terrenospy/terrenospy/pkg/metrics"
)

var (
	ErrNotFound      = errors.New("terreno not found")
	ErrInvalidFormat = errors.New("payload must contain a terrenos array")
)

// Pusher replaces the remote document with a new working set. The store
// client implements it; tests substitute fakes.
type Pusher interface {
	Push(ctx context.Context, ts []terreno.Terreno) error
}

// Fetcher loads the remote document. The store client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) ([]terreno.Terreno, error)
}

// Service owns the working set: every mutation goes through here, writing
// the local cache synchronously and pushing to the remote store
// asynchronously and best-effort.
type Service struct {
	repo     *repository.MemoryRepo
	cache    *cache.Cache
	remote   Pusher       // nil when running without a server
	fetcher  Fetcher      // nil when running without a server
	uploader media.Uploader
	progress media.ProgressFunc

	snapshotPath string // bundled static snapshot, second source in the read chain

	// notifyPush is invoked after each async push settles; tests use it
	// to wait instead of sleeping.
	notifyPush func(err error)
}

// Option configures a Service.
type Option func(*Service)

// WithRemote wires the remote store used for fetch and best-effort push.
func WithRemote(f Fetcher, p Pusher) Option {
	return func(s *Service) { s.fetcher = f; s.remote = p }
}

// WithSnapshot sets the bundled snapshot file tried after the remote store.
func WithSnapshot(path string) Option {
	return func(s *Service) { s.snapshotPath = path }
}

// WithProgress sets the batch upload progress callback.
func WithProgress(fn media.ProgressFunc) Option {
	return func(s *Service) { s.progress = fn }
}

// WithPushNotify registers a hook invoked after each fire-and-forget push
// settles. Observational only.
func WithPushNotify(fn func(err error)) Option {
	return func(s *Service) { s.notifyPush = fn }
}

func New(repo *repository.MemoryRepo, c *cache.Cache, uploader media.Uploader, opts ...Option) *Service {
	if uploader == nil {
		uploader = media.Passthrough{}
	}
	s := &Service{repo: repo, cache: c, uploader: uploader}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init loads the working set through the ordered fallback chain:
// remote store, bundled snapshot, local cache, empty set. Every successful
// load overwrites the local cache. Failures are logged, never surfaced.
func (s *Service) Init(ctx context.Context) {
	providers := []store.Provider{}
	if s.fetcher != nil {
		providers = append(providers, store.Provider{Name: "remote", Load: s.fetcher.Fetch})
	}
	if s.snapshotPath != "" {
		providers = append(providers, store.Provider{Name: "snapshot", Load: s.loadSnapshot})
	}
	providers = append(providers, store.Provider{Name: "cache", Load: func(context.Context) ([]terreno.Terreno, error) {
		return s.cache.Load()
	}})

	ts, source, err := store.FirstOf(ctx, providers...)
	if err != nil && source == "" {
		logger.Warnf("no data source available, starting with an empty set: %v", err)
	}
	s.repo.Replace(ts)
	if source != "" && source != "cache" {
		if err := s.cache.Save(ts); err != nil {
			logger.Warnf("could not refresh local cache: %v", err)
		}
	}
	logger.Infof("loaded %d terrenos (source=%s)", len(ts), sourceOrEmpty(source))
}

func sourceOrEmpty(s string) string {
	if s == "" {
		return "empty"
	}
	return s
}

func (s *Service) loadSnapshot(context.Context) ([]terreno.Terreno, error) {
	b, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var doc struct {
		Terrenos *[]terreno.Terreno `json:"terrenos"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Terrenos == nil {
		return nil, ErrInvalidFormat
	}
	return *doc.Terrenos, nil
}

// List returns a copy of the working set; callers may mutate it freely.
func (s *Service) List() []terreno.Terreno { return s.repo.List() }

// Get returns the listing with the given id.
func (s *Service) Get(id string) (terreno.Terreno, error) {
	t, err := s.repo.Get(id)
	if err != nil {
		return terreno.Terreno{}, ErrNotFound
	}
	return t, nil
}

// Search filters the working set; a blank query returns everything.
func (s *Service) Search(q string) []terreno.Terreno { return s.repo.Search(q) }

// Featured returns the destacado subset.
func (s *Service) Featured() []terreno.Terreno { return s.repo.Featured() }

// Add creates a listing from the given fields: fresh id, both timestamps,
// inline images uploaded (with per-item fallback to the inline payload),
// default image when none supplied, prepended newest-first. The local cache
// is written before returning; the remote push happens in the background.
func (s *Service) Add(ctx context.Context, f terreno.Fields) (terreno.Terreno, error) {
	t, err := s.add(ctx, f)
	if err != nil {
		return t, err
	}
	s.pushAsync()
	return t, nil
}

// add performs the insert and cache write without pushing, so a batch can
// settle with a single push at the end.
func (s *Service) add(ctx context.Context, f terreno.Fields) (terreno.Terreno, error) {
	now := time.Now().UTC()
	t := fromFields(f)
	t.ID = terreno.NewID()
	t.FechaCreacion = now
	t.FechaActualizacion = now

	t.Imagenes = s.resolveImages(ctx, f.Imagenes, t.ID)
	if len(t.Imagenes) == 0 {
		t.Imagenes = []string{terreno.DefaultImages[0]}
	}
	t.Media = s.resolveMedia(ctx, f.Media, t.ID)

	s.repo.Prepend(t)
	if err := s.cache.Save(s.repo.List()); err != nil {
		return t, err
	}
	return t, nil
}

// Update merges fields over the existing record: id and fechaCreacion are
// preserved, fechaActualizacion re-stamped and never allowed to go
// backwards. Nil Imagenes/Media keep the stored values; newly inline images
// are uploaded while hosted URLs pass through untouched.
func (s *Service) Update(ctx context.Context, id string, f terreno.Fields) (terreno.Terreno, error) {
	old, err := s.repo.Get(id)
	if err != nil {
		return terreno.Terreno{}, ErrNotFound
	}
	t := fromFields(f)
	t.ID = old.ID
	t.FechaCreacion = old.FechaCreacion
	t.FechaActualizacion = time.Now().UTC()
	if t.FechaActualizacion.Before(old.FechaActualizacion) {
		t.FechaActualizacion = old.FechaActualizacion
	}
	if f.Imagenes == nil {
		t.Imagenes = old.Imagenes
	} else {
		t.Imagenes = s.resolveImages(ctx, f.Imagenes, t.ID)
		if len(t.Imagenes) == 0 {
			t.Imagenes = []string{terreno.DefaultImages[0]}
		}
	}
	if f.Media == nil {
		t.Media = old.Media
	} else {
		t.Media = s.resolveMedia(ctx, f.Media, t.ID)
	}
	if err := s.repo.Set(t); err != nil {
		return terreno.Terreno{}, ErrNotFound
	}
	if err := s.cache.Save(s.repo.List()); err != nil {
		return t, err
	}
	s.pushAsync()
	return t, nil
}

// Delete removes the listing, persists and pushes.
func (s *Service) Delete(_ context.Context, id string) error {
	if err := s.repo.Delete(id); err != nil {
		return ErrNotFound
	}
	if err := s.cache.Save(s.repo.List()); err != nil {
		return err
	}
	s.pushAsync()
	return nil
}

// BatchResult aggregates a batch submission.
type BatchResult struct {
	Exitosos int
	Fallidos int
}

// AddBatch adds records sequentially; one record failing does not abort the
// batch. The whole batch settles with a single remote push.
func (s *Service) AddBatch(ctx context.Context, records []terreno.Fields) BatchResult {
	var res BatchResult
	for _, f := range records {
		if _, err := s.add(ctx, f); err != nil {
			res.Fallidos++
			continue
		}
		res.Exitosos++
	}
	s.pushAsync()
	return res
}

// ImportBulk replaces the entire working set from an external JSON payload.
func (s *Service) ImportBulk(raw []byte) (int, error) {
	var doc struct {
		Terrenos *[]terreno.Terreno `json:"terrenos"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, ErrInvalidFormat
	}
	if doc.Terrenos == nil {
		return 0, ErrInvalidFormat
	}
	s.repo.Replace(*doc.Terrenos)
	if err := s.cache.Save(s.repo.List()); err != nil {
		return len(*doc.Terrenos), err
	}
	s.pushAsync()
	return len(*doc.Terrenos), nil
}

// ExportSnapshot serializes the working set plus metadata. No network
// effect.
func (s *Service) ExportSnapshot() ([]byte, error) {
	doc := terreno.Documento{
		Terrenos: s.repo.List(),
		Metadata: &terreno.Metadata{
			TotalTerrenos:   s.repo.Len(),
			FechaGeneracion: time.Now().UTC(),
			Version:         terreno.SchemaVersion,
			GeneradoPor:     terreno.GeneratorName,
			SoportaMoneda:   true,
		},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ClearCache empties the local cache and the working set, then pushes the
// empty set fire-and-forget.
func (s *Service) ClearCache() error {
	if err := s.cache.Clear(); err != nil {
		return err
	}
	s.repo.Replace(nil)
	s.pushAsync()
	return nil
}

// pushAsync replaces the remote document in the background. The caller
// returns before the push settles; failure is logged and counted, never
// surfaced.
func (s *Service) pushAsync() {
	if s.remote == nil {
		if s.notifyPush != nil {
			s.notifyPush(nil)
		}
		return
	}
	snapshot := s.repo.List()
	go func() {
		err := s.remote.Push(context.Background(), snapshot)
		if err != nil {
			metrics.RemotePushFailures.Inc()
			logger.Warnf("remote push failed (local cache remains the recovery path): %v", err)
		}
		if s.notifyPush != nil {
			s.notifyPush(err)
		}
	}()
}

func fromFields(f terreno.Fields) terreno.Terreno {
	return terreno.Terreno{
		Titulo:      f.Titulo,
		Ubicacion:   f.Ubicacion,
		Descripcion: f.Descripcion,
		Precio:      f.Precio,
		Moneda:      f.Moneda,
		Tamano:      f.Tamano,
		Estado:      f.Estado,
		Categoria:   f.Categoria,
		Destacado:   f.Destacado,
		MapaURL:     f.MapaURL,
		Email:       f.Email,
		Telefono:    f.Telefono,
	}
}

// resolveImages uploads inline payloads and keeps hosted URLs untouched.
// A failed upload falls back to storing the inline payload.
func (s *Service) resolveImages(ctx context.Context, imgs []string, id string) []string {
	if len(imgs) == 0 {
		return nil
	}
	payloads := make([]media.Payload, 0, len(imgs))
	for i, img := range imgs {
		payloads = append(payloads, media.Payload{
			Kind:     terreno.MediaTypeImage,
			Data:     img,
			Filename: fmt.Sprintf("terreno_%s_%d_%d.%s", id, i, time.Now().UnixMilli(), media.FormatFromDataURI(img)),
		})
	}
	results := media.UploadMany(ctx, s.uploader, payloads, s.progress)
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.URL)
	}
	return out
}

func (s *Service) resolveMedia(ctx context.Context, items []terreno.MediaItem, id string) []terreno.MediaItem {
	if len(items) == 0 {
		return nil
	}
	payloads := make([]media.Payload, 0, len(items))
	for i, it := range items {
		payloads = append(payloads, media.Payload{
			Kind:     it.Tipo,
			Data:     it.URL,
			Filename: fmt.Sprintf("terreno_%s_m%d_%d", id, i, time.Now().UnixMilli()),
		})
	}
	results := media.UploadMany(ctx, s.uploader, payloads, s.progress)
	out := make([]terreno.MediaItem, 0, len(items))
	for i, it := range items {
		out = append(out, terreno.MediaItem{Tipo: it.Tipo, URL: results[i].URL, Poster: it.Poster})
	}
	return out
}
