package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/terrenospy/terrenospy/internal/store"
	"github.com/terrenospy/terrenospy/internal/terreno"
	"github.com/terrenospy/terrenospy/internal/terreno/repository"
	"github.com/terrenospy/terrenospy/pkg/logger"
	"github.com/terrenospy/terrenospy/pkg/metrics"
)

// DataHandler serves the document store endpoints: GET returns the backing
// file verbatim, PUT replaces it whole. No partial updates, no optimistic
// concurrency; last completed write wins.
type DataHandler struct {
	store    *store.FileStore
	mirror   *repository.MongoRepo // optional Mongo mirror, may be nil
	maxBytes int64
}

func NewDataHandler(fs *store.FileStore, mirror *repository.MongoRepo, maxBytes int64) *DataHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &DataHandler{store: fs, mirror: mirror, maxBytes: maxBytes}
}

// Register wires the data routes.
func (h *DataHandler) Register(r *gin.Engine) {
	r.GET("/api/data", h.Get)
	r.PUT("/api/data", h.Put)
}

func (h *DataHandler) Get(c *gin.Context) {
	b, err := h.store.Read()
	if err != nil {
		logger.Errorf("error reading %s: %v", h.store.Path(), err)
		metrics.DataReads.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error leyendo data.json"})
		return
	}
	metrics.DataReads.WithLabelValues("ok").Inc()
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

func (h *DataHandler) Put(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			metrics.DataWrites.WithLabelValues("too_large").Inc()
			c.Header("Connection", "close")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload demasiado grande"})
			return
		}
		metrics.DataWrites.WithLabelValues("error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error leyendo el cuerpo"})
		return
	}

	if err := h.store.Write(body); err != nil {
		if errors.Is(err, store.ErrInvalidFormat) {
			logger.Warnf("invalid JSON in PUT /api/data: %v", err)
			metrics.DataWrites.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON inválido"})
			return
		}
		logger.Errorf("error writing %s: %v", h.store.Path(), err)
		metrics.DataWrites.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error guardando data.json"})
		return
	}
	metrics.DataWrites.WithLabelValues("ok").Inc()

	// mirror to Mongo in the background; the file write already succeeded
	if h.mirror != nil {
		var doc terreno.Documento
		if jerr := json.Unmarshal(body, &doc); jerr == nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if merr := h.mirror.Save(ctx, doc.Terrenos); merr != nil {
					logger.Warnf("mongo mirror save failed: %v", merr)
				}
			}()
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
