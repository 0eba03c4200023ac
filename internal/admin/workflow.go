// Package admin orchestrates the administration flows: form submission,
// batch submission, import and export. It validates input, normalizes the
// map URL and delegates persistence to the listing service. Every operation
// reports a success flag plus a user-facing message.
package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/terrenospy/terrenospy/internal/terreno"
	"github.com/terrenospy/terrenospy/internal/terreno/service"
)

// Result carries the outcome of a user-initiated action.
type Result struct {
	Success bool
	Message string
}

type Workflow struct {
	svc *service.Service
}

func NewWorkflow(svc *service.Service) *Workflow {
	return &Workflow{svc: svc}
}

// validate applies the admin form rules.
func validate(f terreno.Fields) error {
	if strings.TrimSpace(f.Titulo) == "" {
		return errors.New("el título es obligatorio")
	}
	if strings.TrimSpace(f.Ubicacion) == "" {
		return errors.New("la ubicación es obligatoria")
	}
	if f.Precio <= 0 {
		return errors.New("el precio es obligatorio y debe ser mayor a 0")
	}
	if f.Tamano <= 0 {
		return errors.New("el tamaño es obligatorio")
	}
	if strings.TrimSpace(f.Moneda) == "" {
		return errors.New("la moneda es obligatoria")
	}
	if f.Email != "" && !terreno.ValidEmail(f.Email) {
		return errors.New("email inválido")
	}
	if f.Telefono != "" && !terreno.ValidTelefono(f.Telefono) {
		return errors.New("teléfono inválido")
	}
	if len(f.Imagenes) > terreno.MaxImages {
		return fmt.Errorf("máximo %d imágenes por terreno", terreno.MaxImages)
	}
	return nil
}

// SubmitForm creates a listing, or updates it when editID is set.
func (w *Workflow) SubmitForm(ctx context.Context, f terreno.Fields, editID string) Result {
	if err := validate(f); err != nil {
		return Result{Success: false, Message: "Error: " + err.Error()}
	}
	f.MapaURL = terreno.NormalizeMapURL(f.MapaURL)

	if editID != "" {
		if _, err := w.svc.Update(ctx, editID, f); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return Result{Success: false, Message: "Terreno no encontrado"}
			}
			return Result{Success: false, Message: "Error al actualizar el terreno: " + err.Error()}
		}
		return Result{Success: true, Message: "Terreno actualizado correctamente"}
	}

	t, err := w.svc.Add(ctx, f)
	if err != nil {
		return Result{Success: false, Message: "Error: " + err.Error()}
	}
	return Result{Success: true, Message: fmt.Sprintf("Terreno agregado correctamente (id %s)", t.ID)}
}

// Delete removes a listing.
func (w *Workflow) Delete(ctx context.Context, id string) Result {
	if err := w.svc.Delete(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return Result{Success: false, Message: "Terreno no encontrado"}
		}
		return Result{Success: false, Message: "Error al eliminar el terreno: " + err.Error()}
	}
	return Result{Success: true, Message: "Terreno eliminado correctamente"}
}

// SubmitBatch adds up to MaxBatchItems records; invalid records are counted
// as failed without aborting the rest.
func (w *Workflow) SubmitBatch(ctx context.Context, records []terreno.Fields) Result {
	if len(records) == 0 {
		return Result{Success: false, Message: "Lote vacío"}
	}
	if len(records) > terreno.MaxBatchItems {
		return Result{Success: false, Message: fmt.Sprintf("Máximo %d terrenos por lote", terreno.MaxBatchItems)}
	}
	valid := make([]terreno.Fields, 0, len(records))
	fallidos := 0
	for _, f := range records {
		if err := validate(f); err != nil {
			fallidos++
			continue
		}
		f.MapaURL = terreno.NormalizeMapURL(f.MapaURL)
		valid = append(valid, f)
	}
	res := w.svc.AddBatch(ctx, valid)
	return Result{
		Success: true,
		Message: fmt.Sprintf("Lote procesado: %d exitosos, %d fallidos", res.Exitosos, res.Fallidos+fallidos),
	}
}

// Import replaces the working set from a JSON file on disk.
func (w *Workflow) Import(path string) Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{Success: false, Message: "Error importando JSON: " + err.Error()}
	}
	n, err := w.svc.ImportBulk(raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFormat) {
			return Result{Success: false, Message: "Error importando JSON: formato inválido"}
		}
		return Result{Success: false, Message: "Error importando JSON: " + err.Error()}
	}
	return Result{Success: true, Message: fmt.Sprintf("Importados %d terrenos correctamente", n)}
}

// Export writes a timestamped snapshot file into dir and returns its path.
func (w *Workflow) Export(dir string) (string, Result) {
	b, err := w.svc.ExportSnapshot()
	if err != nil {
		return "", Result{Success: false, Message: "Error exportando JSON: " + err.Error()}
	}
	name := fmt.Sprintf("terrenos_py_%s.json", time.Now().Format("2006-01-02"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0644); err != nil {
		return "", Result{Success: false, Message: "Error exportando JSON: " + err.Error()}
	}
	return path, Result{Success: true, Message: "JSON exportado correctamente"}
}

// ClearCache empties the local cache and working set.
func (w *Workflow) ClearCache() Result {
	if err := w.svc.ClearCache(); err != nil {
		return Result{Success: false, Message: "Error limpiando cache: " + err.Error()}
	}
	return Result{Success: true, Message: "Cache limpiado correctamente"}
}
