package terreno

import (
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Terreno is the single persistent listing entity. JSON field names are the
// wire contract shared with the data.json document and must not change.
type Terreno struct {
	ID                 string      `json:"id" bson:"id"`
	Titulo             string      `json:"titulo" bson:"titulo"`
	Ubicacion          string      `json:"ubicacion" bson:"ubicacion"`
	Descripcion        string      `json:"descripcion,omitempty" bson:"descripcion,omitempty"`
	Precio             float64     `json:"precio" bson:"precio"`
	Moneda             string      `json:"moneda,omitempty" bson:"moneda,omitempty"`
	Tamano             float64     `json:"tamaño,omitempty" bson:"tamano,omitempty"`
	Estado             string      `json:"estado,omitempty" bson:"estado,omitempty"`
	Categoria          string      `json:"categoria,omitempty" bson:"categoria,omitempty"`
	Destacado          bool        `json:"destacado" bson:"destacado"`
	Imagenes           []string    `json:"imagenes" bson:"imagenes"`
	Media              []MediaItem `json:"media,omitempty" bson:"media,omitempty"`
	MapaURL            string      `json:"mapaUrl,omitempty" bson:"mapaUrl,omitempty"`
	Email              string      `json:"email,omitempty" bson:"email,omitempty"`
	Telefono           string      `json:"telefono,omitempty" bson:"telefono,omitempty"`
	FechaCreacion      time.Time   `json:"fechaCreacion" bson:"fechaCreacion"`
	FechaActualizacion time.Time   `json:"fechaActualizacion" bson:"fechaActualizacion"`
}

// MediaItem is the richer successor to the Imagenes list: images and videos
// with an optional poster frame for videos.
type MediaItem struct {
	Tipo   string `json:"type" bson:"type"` // "image" | "video"
	URL    string `json:"url" bson:"url"`
	Poster string `json:"poster,omitempty" bson:"poster,omitempty"`
}

// Media type constants
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Estado values
const (
	EstadoDisponible = "disponible"
	EstadoReservado  = "reservado"
	EstadoVendido    = "vendido"
)

// Categoria values
const (
	CategoriaResidencial = "residencial"
	CategoriaComercial   = "comercial"
	CategoriaRural       = "rural"
	CategoriaIndustrial  = "industrial"
	CategoriaCampestre   = "campestre"
	CategoriaGeneral     = "general"
)

// Moneda values
const (
	MonedaGuarani = "Gs."
	MonedaDolar   = "USD"
)

// Fields carries the mutable listing attributes supplied by the admin form.
// ID and both timestamps are always owned by the service.
type Fields struct {
	Titulo      string
	Ubicacion   string
	Descripcion string
	Precio      float64
	Moneda      string
	Tamano      float64
	Estado      string
	Categoria   string
	Destacado   bool
	Imagenes    []string
	Media       []MediaItem
	MapaURL     string
	Email       string
	Telefono    string
}

// Documento is the persisted data.json shape: the full listing array plus
// optional export metadata.
type Documento struct {
	Terrenos []Terreno `json:"terrenos"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Metadata describes an exported snapshot.
type Metadata struct {
	TotalTerrenos   int       `json:"totalTerrenos"`
	FechaGeneracion time.Time `json:"fechaGeneracion"`
	Version         string    `json:"version"`
	GeneradoPor     string    `json:"generadoPor"`
	SoportaMoneda   bool      `json:"soportaMoneda"`
}

// DefaultImages are substituted when a listing is stored without any image.
// Every persisted listing carries at least one image.
var DefaultImages = []string{
	"https://images.unsplash.com/photo-1560518883-ce09059eeffa?w=1200&auto=format&fit=crop&q=80",
	"https://images.unsplash.com/photo-1570129477492-45c003edd2be?w=1200&auto=format&fit=crop&q=80",
	"https://images.unsplash.com/photo-1545324418-cc1a3fa10c00?w=1200&auto=format&fit=crop&q=80",
}

// Admin form limits
const (
	MaxImages     = 6
	MaxBatchItems = 10
)

// SchemaVersion is stamped into export metadata.
const SchemaVersion = "3.0"

// GeneratorName identifies snapshots produced by this system.
const GeneratorName = "Sistema Terrenos PY"

// NewID returns a fresh listing id: a millisecond timestamp plus a short
// random base-36 suffix. Uniqueness within a working set is all that is
// required; the format matches ids already present in existing documents.
func NewID() string {
	suffix := strconv.FormatInt(rand.Int63(), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return fmt.Sprintf("t%d%s", time.Now().UnixMilli(), suffix)
}

// FormatPrecio renders a price for display: thousands separated with dots in
// the local style, or a "consult" placeholder when no usable price is set.
func FormatPrecio(precio float64, moneda string) string {
	if precio <= 0 {
		return "Consultar precio"
	}
	n := int64(precio)
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if moneda == "" {
		moneda = MonedaGuarani
	}
	return moneda + " " + b.String()
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[+]?[0-9\s\-()]+$`)
	atRe    = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// ValidTelefono reports whether s looks like a phone number.
func ValidTelefono(s string) bool { return phoneRe.MatchString(s) }

// NormalizeMapURL rewrites a Google Maps link into a form that can be loaded
// inside an iframe. Links that are already embeddable, and shortlinks that
// cannot be rewritten, pass through unchanged. Anything that does not parse
// as a URL becomes a plain map search query.
func NormalizeMapURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if strings.Contains(u, "/maps/embed") || strings.Contains(u, "output=embed") {
		return u
	}
	if strings.Contains(u, "maps.app.goo.gl") || strings.Contains(u, "goo.gl/maps") {
		return u
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "https://www.google.com/maps?q=" + url.QueryEscape(u) + "&output=embed"
	}
	if strings.Contains(parsed.Host, "google.") && strings.Contains(parsed.Path, "/maps") {
		if q := parsed.Query().Get("q"); q != "" {
			vals := parsed.Query()
			vals.Set("output", "embed")
			parsed.RawQuery = vals.Encode()
			parsed.Path = "/maps"
			return parsed.String()
		}
		if m := atRe.FindStringSubmatch(parsed.Path); m != nil {
			return "https://www.google.com/maps?q=" + url.QueryEscape(m[1]+","+m[2]) + "&output=embed"
		}
	}
	return "https://www.google.com/maps?q=" + url.QueryEscape(parsed.String()) + "&output=embed"
}
