package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terrenospy/terrenospy/internal/cache"
	"github.com/terrenospy/terrenospy/internal/terreno"
	"github.com/terrenospy/terrenospy/internal/terreno/repository"
)

type fakeRemote struct {
	mu      sync.Mutex
	pushes  [][]terreno.Terreno
	pushErr error

	fetchSet []terreno.Terreno
	fetchErr error
}

func (f *fakeRemote) Push(_ context.Context, ts []terreno.Terreno) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, ts)
	return f.pushErr
}

func (f *fakeRemote) Fetch(context.Context) ([]terreno.Terreno, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.fetchSet, nil
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *fakeRemote, chan error) {
	t.Helper()
	remote := &fakeRemote{}
	pushed := make(chan error, 32)
	base := []Option{
		WithRemote(remote, remote),
		WithPushNotify(func(err error) { pushed <- err }),
	}
	c := cache.New(filepath.Join(t.TempDir(), "cache.json"))
	svc := New(repository.NewMemoryRepo(), c, nil, append(base, opts...)...)
	return svc, remote, pushed
}

func awaitPush(t *testing.T, pushed chan error) error {
	t.Helper()
	select {
	case err := <-pushed:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("push did not settle")
		return nil
	}
}

func TestAddAssignsIDTimestampsAndDefaultImage(t *testing.T) {
	svc, _, pushed := newTestService(t)

	got, err := svc.Add(context.Background(), terreno.Fields{Titulo: "Lote en Luque", Ubicacion: "Luque", Precio: 95000000, Moneda: terreno.MonedaGuarani})
	require.NoError(t, err)
	awaitPush(t, pushed)

	require.NotEmpty(t, got.ID)
	require.False(t, got.FechaCreacion.IsZero())
	require.Equal(t, got.FechaCreacion, got.FechaActualizacion)
	require.Equal(t, []string{terreno.DefaultImages[0]}, got.Imagenes)

	back, err := svc.Get(got.ID)
	require.NoError(t, err)
	require.Equal(t, got, back)
}

func TestAddPrependsNewestFirst(t *testing.T) {
	svc, _, pushed := newTestService(t)

	first, err := svc.Add(context.Background(), terreno.Fields{Titulo: "A", Ubicacion: "X"})
	require.NoError(t, err)
	awaitPush(t, pushed)
	second, err := svc.Add(context.Background(), terreno.Fields{Titulo: "B", Ubicacion: "Y"})
	require.NoError(t, err)
	awaitPush(t, pushed)

	list := svc.List()
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
	require.NotEqual(t, first.ID, second.ID)
}

func TestUpdateNotFoundLeavesSetUnchanged(t *testing.T) {
	svc, _, pushed := newTestService(t)
	added, err := svc.Add(context.Background(), terreno.Fields{Titulo: "A", Ubicacion: "X"})
	require.NoError(t, err)
	awaitPush(t, pushed)

	before := svc.List()
	_, err = svc.Update(context.Background(), "no-such-id", terreno.Fields{Titulo: "Z"})
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, before, svc.List())

	_, err = svc.Get(added.ID)
	require.NoError(t, err)
}

func TestUpdatePreservesIdentityAndMergesImages(t *testing.T) {
	svc, _, pushed := newTestService(t)
	added, err := svc.Add(context.Background(), terreno.Fields{
		Titulo:    "Original",
		Ubicacion: "Luque",
		Imagenes:  []string{"https://res.cloudinary.com/demo/image/upload/lote.jpg"},
	})
	require.NoError(t, err)
	awaitPush(t, pushed)

	got, err := svc.Update(context.Background(), added.ID, terreno.Fields{Titulo: "Editado", Ubicacion: "Luque"})
	require.NoError(t, err)
	awaitPush(t, pushed)

	require.Equal(t, added.ID, got.ID)
	require.Equal(t, added.FechaCreacion, got.FechaCreacion)
	require.False(t, got.FechaActualizacion.Before(added.FechaActualizacion))
	require.Equal(t, "Editado", got.Titulo)
	// nil Imagenes keeps the stored gallery
	require.Equal(t, added.Imagenes, got.Imagenes)
}

func TestDelete(t *testing.T) {
	svc, _, pushed := newTestService(t)
	added, err := svc.Add(context.Background(), terreno.Fields{Titulo: "A", Ubicacion: "X"})
	require.NoError(t, err)
	awaitPush(t, pushed)

	require.NoError(t, svc.Delete(context.Background(), added.ID))
	awaitPush(t, pushed)
	require.ErrorIs(t, svc.Delete(context.Background(), added.ID), ErrNotFound)
	require.Empty(t, svc.List())
}

func TestSearchBlankReturnsEverything(t *testing.T) {
	svc, _, pushed := newTestService(t)
	for _, titulo := range []string{"Lote céntrico", "Campo", "Quinta"} {
		_, err := svc.Add(context.Background(), terreno.Fields{Titulo: titulo, Ubicacion: "Luque"})
		require.NoError(t, err)
		awaitPush(t, pushed)
	}

	require.Equal(t, svc.List(), svc.Search(""))
	sub := svc.Search("campo")
	require.Len(t, sub, 1)
	require.Equal(t, "Campo", sub[0].Titulo)
}

func TestPushFireAndForget(t *testing.T) {
	svc, remote, pushed := newTestService(t)
	remote.pushErr = errors.New("remote down")

	// the mutation still succeeds even though the push fails
	added, err := svc.Add(context.Background(), terreno.Fields{Titulo: "A", Ubicacion: "X"})
	require.NoError(t, err)
	require.Error(t, awaitPush(t, pushed))

	_, err = svc.Get(added.ID)
	require.NoError(t, err)
	require.Equal(t, 1, remote.pushCount())
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, _, pushed := newTestService(t)
	_, err := svc.Add(context.Background(), terreno.Fields{Titulo: "Lote", Ubicacion: "Capiatá", Precio: 45500, Moneda: terreno.MonedaDolar})
	require.NoError(t, err)
	awaitPush(t, pushed)
	want := svc.List()

	raw, err := svc.ExportSnapshot()
	require.NoError(t, err)

	var doc terreno.Documento
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.NotNil(t, doc.Metadata)
	require.Equal(t, 1, doc.Metadata.TotalTerrenos)
	require.Equal(t, terreno.SchemaVersion, doc.Metadata.Version)
	require.Equal(t, terreno.GeneratorName, doc.Metadata.GeneradoPor)
	require.True(t, doc.Metadata.SoportaMoneda)

	other, _, otherPushed := newTestService(t)
	n, err := other.ImportBulk(raw)
	require.NoError(t, err)
	awaitPush(t, otherPushed)
	require.Equal(t, 1, n)
	require.Equal(t, want, other.List())
}

func TestImportBulkRejectsMissingArray(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ImportBulk([]byte(`{"foo": 1}`))
	require.ErrorIs(t, err, ErrInvalidFormat)
	_, err = svc.ImportBulk([]byte(`not json`))
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestAddBatchCountsAndPushesOnce(t *testing.T) {
	svc, remote, pushed := newTestService(t)
	res := svc.AddBatch(context.Background(), []terreno.Fields{
		{Titulo: "A", Ubicacion: "X"},
		{Titulo: "B", Ubicacion: "Y"},
	})
	require.Equal(t, 2, res.Exitosos)
	require.Equal(t, 0, res.Fallidos)
	require.Len(t, svc.List(), 2)

	// the whole batch settles with exactly one remote push
	require.NoError(t, awaitPush(t, pushed))
	require.Equal(t, 1, remote.pushCount())
	select {
	case <-pushed:
		t.Fatal("batch must not push per item")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInitFallsBackToSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "data.json")
	doc := terreno.Documento{Terrenos: []terreno.Terreno{{ID: "t1", Titulo: "Lote", Ubicacion: "Luque"}}}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(snapshot, raw, 0644))

	remote := &fakeRemote{fetchErr: errors.New("connection refused")}
	c := cache.New(filepath.Join(dir, "cache.json"))
	svc := New(repository.NewMemoryRepo(), c, nil,
		WithRemote(remote, remote),
		WithSnapshot(snapshot),
	)
	svc.Init(context.Background())

	require.Len(t, svc.List(), 1)
	require.Equal(t, "t1", svc.List()[0].ID)

	// a successful non-cache load refreshes the local cache
	cached, err := c.Load()
	require.NoError(t, err)
	require.Len(t, cached, 1)
}

func TestInitPrefersRemote(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(snapshot, []byte(`{"terrenos":[{"id":"snap"}]}`), 0644))

	remote := &fakeRemote{fetchSet: []terreno.Terreno{{ID: "remoto", Titulo: "Remoto"}}}
	c := cache.New(filepath.Join(dir, "cache.json"))
	svc := New(repository.NewMemoryRepo(), c, nil,
		WithRemote(remote, remote),
		WithSnapshot(snapshot),
	)
	svc.Init(context.Background())

	require.Len(t, svc.List(), 1)
	require.Equal(t, "remoto", svc.List()[0].ID)
}

func TestInitFallsBackToCacheThenEmpty(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(filepath.Join(dir, "cache.json"))
	require.NoError(t, c.Save([]terreno.Terreno{{ID: "cached", Titulo: "Desde cache"}}))

	remote := &fakeRemote{fetchErr: errors.New("timeout")}
	svc := New(repository.NewMemoryRepo(), c, nil, WithRemote(remote, remote))
	svc.Init(context.Background())
	require.Len(t, svc.List(), 1)
	require.Equal(t, "cached", svc.List()[0].ID)

	// nothing available at all: empty set, no error surfaced
	empty := New(repository.NewMemoryRepo(), cache.New(filepath.Join(dir, "missing.json")), nil)
	empty.Init(context.Background())
	require.Empty(t, empty.List())
}

func TestClearCache(t *testing.T) {
	svc, _, pushed := newTestService(t)
	_, err := svc.Add(context.Background(), terreno.Fields{Titulo: "A", Ubicacion: "X"})
	require.NoError(t, err)
	awaitPush(t, pushed)

	require.NoError(t, svc.ClearCache())
	awaitPush(t, pushed)
	require.Empty(t, svc.List())
}
