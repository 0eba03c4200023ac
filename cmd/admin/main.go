// Command admin drives the administration workflow against a running
// terrenos server: list, search, add, update, delete, batch, import, export
// and cache maintenance. It keeps the same local cache file the repository
// uses, so it stays useful offline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/terrenospy/terrenospy/internal/admin"
	"github.com/terrenospy/terrenospy/internal/cache"
	"github.com/terrenospy/terrenospy/internal/config"
	"github.com/terrenospy/terrenospy/internal/media"
	"github.com/terrenospy/terrenospy/internal/store"
	"github.com/terrenospy/terrenospy/internal/terreno"
	"github.com/terrenospy/terrenospy/internal/terreno/repository"
	"github.com/terrenospy/terrenospy/internal/terreno/service"
	"github.com/terrenospy/terrenospy/pkg/logger"
)

func main() {
	serverURL := flag.String("server", envOr("TERRENOS_SERVER_URL", "http://localhost:3000"), "base URL of the terrenos server")
	id := flag.String("id", "", "listing id (update/delete/get)")
	file := flag.String("file", "", "JSON file (add/update/batch/import)")
	query := flag.String("q", "", "search query")
	outDir := flag.String("out", ".", "output directory for export")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: admin [flags] list|featured|search|get|add|update|delete|batch|import|export|clear")
		os.Exit(2)
	}
	command := flag.Arg(0)

	// media backend: Cloudinary when configured, MinIO as the self-hosted
	// alternative, inline passthrough otherwise
	var uploader media.Uploader = media.Passthrough{}
	if cu := media.NewCloudinary(cfg.Cloudinary, nil); cu.Configured() {
		uploader = cu
	} else if cfg.MinIO.Endpoint != "" {
		mu, err := media.NewMinIO(cfg.MinIO)
		if err != nil {
			logger.Warnf("minio unavailable, falling back to inline media: %v", err)
		} else {
			uploader = mu
		}
	}

	client := store.NewClient(*serverURL, nil)
	svc := service.New(
		repository.NewMemoryRepo(),
		cache.New(cfg.Store.CacheFile),
		uploader,
		service.WithRemote(client, client),
		service.WithSnapshot(cfg.Store.SnapshotFile),
		service.WithProgress(func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rsubiendo %d/%d", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}),
	)
	ctx := context.Background()
	svc.Init(ctx)
	wf := admin.NewWorkflow(svc)

	switch command {
	case "list":
		printJSON(svc.List())
	case "featured":
		printJSON(svc.Featured())
	case "search":
		printJSON(svc.Search(*query))
	case "get":
		t, err := svc.Get(*id)
		if err != nil {
			fail("Terreno no encontrado")
		}
		printJSON(t)
	case "add":
		f := readFields(*file)
		report(wf.SubmitForm(ctx, f, ""))
	case "update":
		if *id == "" {
			fail("update requires -id")
		}
		f := readFields(*file)
		report(wf.SubmitForm(ctx, f, *id))
	case "delete":
		if *id == "" {
			fail("delete requires -id")
		}
		report(wf.Delete(ctx, *id))
	case "batch":
		records := readBatch(*file)
		report(wf.SubmitBatch(ctx, records))
	case "import":
		if *file == "" {
			fail("import requires -file")
		}
		report(wf.Import(*file))
	case "export":
		path, res := wf.Export(*outDir)
		if res.Success {
			fmt.Println(path)
		}
		report(res)
	case "clear":
		report(wf.ClearCache())
	default:
		fail("unknown command: " + command)
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func readFields(path string) terreno.Fields {
	if path == "" {
		fail("command requires -file with the listing fields as JSON")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		fail(err.Error())
	}
	var f fieldsJSON
	if err := json.Unmarshal(b, &f); err != nil {
		fail("invalid fields JSON: " + err.Error())
	}
	return f.toFields()
}

func readBatch(path string) []terreno.Fields {
	if path == "" {
		fail("batch requires -file with a JSON array of listings")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		fail(err.Error())
	}
	var fs []fieldsJSON
	if err := json.Unmarshal(b, &fs); err != nil {
		fail("invalid batch JSON: " + err.Error())
	}
	out := make([]terreno.Fields, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.toFields())
	}
	return out
}

// fieldsJSON mirrors the wire names of the admin form.
type fieldsJSON struct {
	Titulo      string              `json:"titulo"`
	Ubicacion   string              `json:"ubicacion"`
	Descripcion string              `json:"descripcion"`
	Precio      float64             `json:"precio"`
	Moneda      string              `json:"moneda"`
	Tamano      float64             `json:"tamaño"`
	Estado      string              `json:"estado"`
	Categoria   string              `json:"categoria"`
	Destacado   bool                `json:"destacado"`
	Imagenes    []string            `json:"imagenes"`
	Media       []terreno.MediaItem `json:"media"`
	MapaURL     string              `json:"mapaUrl"`
	Email       string              `json:"email"`
	Telefono    string              `json:"telefono"`
}

func (f fieldsJSON) toFields() terreno.Fields {
	return terreno.Fields{
		Titulo:      f.Titulo,
		Ubicacion:   f.Ubicacion,
		Descripcion: f.Descripcion,
		Precio:      f.Precio,
		Moneda:      f.Moneda,
		Tamano:      f.Tamano,
		Estado:      f.Estado,
		Categoria:   f.Categoria,
		Destacado:   f.Destacado,
		Imagenes:    f.Imagenes,
		Media:       f.Media,
		MapaURL:     f.MapaURL,
		Email:       f.Email,
		Telefono:    f.Telefono,
	}
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail(err.Error())
	}
	fmt.Println(string(b))
}

func report(res admin.Result) {
	fmt.Println(res.Message)
	if !res.Success {
		os.Exit(1)
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
