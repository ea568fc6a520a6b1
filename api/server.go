// Package api exposes the stencil pipeline over HTTP: multipart image
// uploads in, binary STL (or SVG, or a JSON preview mesh) out.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mylar3d/mylar/pkg/grid"
	"github.com/mylar3d/mylar/pkg/history"
	"github.com/mylar3d/mylar/pkg/preview"
	"github.com/mylar3d/mylar/pkg/raster"
	"github.com/mylar3d/mylar/pkg/stencil"
	"github.com/mylar3d/mylar/pkg/vectorize"
)

// defaultMaxUpload bounds multipart request bodies when the config does not.
const defaultMaxUpload = 16 << 20

// Config holds the knobs the handlers need.
type Config struct {
	MaxUploadBytes int64          // multipart body limit; 0 selects the default
	StaticDir      string         // frontend directory served at /; empty disables
	Defaults       stencil.Params // parameter defaults for absent form fields
	Potrace        string         // tracer binary for SVG generation
}

// Server carries the handler dependencies.
type Server struct {
	log *log.Logger
	db  *history.DB // nil disables conversion history
	cfg Config
}

// NewServer creates a Server. db may be nil to disable history.
func NewServer(logger *log.Logger, db *history.DB, cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	return &Server{log: logger, db: db, cfg: cfg}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate-stl", s.generateSTL)
	mux.HandleFunc("/api/generate-svg", s.generateSVG)
	mux.HandleFunc("/api/preview", s.previewMesh)
	mux.HandleFunc("/api/conversions", s.listConversions)
	mux.HandleFunc("/healthz", s.health)
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "ok")
}

// upload pulls the multipart file and the three numeric parameters out of
// the request, falling back to the configured defaults for absent fields.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) ([]byte, string, stencil.Params, bool) {
	p := s.cfg.Defaults
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, "", p, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		http.Error(w, "multipart form required", http.StatusBadRequest)
		return nil, "", p, false
	}
	file, fh, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return nil, "", p, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "read upload", http.StatusInternalServerError)
		return nil, "", p, false
	}

	ok := true
	p.WidthMM = formFloat(w, r, "width_mm", p.WidthMM, &ok)
	p.ThicknessMM = formFloat(w, r, "thickness_mm", p.ThicknessMM, &ok)
	p.BorderMM = formFloat(w, r, "border_mm", p.BorderMM, &ok)
	if !ok {
		return nil, "", p, false
	}
	return data, fh.Filename, p, true
}

// formFloat parses an optional numeric form field. On a malformed value it
// writes a 400 and flips ok.
func formFloat(w http.ResponseWriter, r *http.Request, name string, def float64, ok *bool) float64 {
	raw := r.FormValue(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if *ok {
			http.Error(w, fmt.Sprintf("invalid %s: %q", name, raw), http.StatusBadRequest)
			*ok = false
		}
		return def
	}
	return v
}

func (s *Server) generateSTL(w http.ResponseWriter, r *http.Request) {
	data, filename, p, ok := s.upload(w, r)
	if !ok {
		return
	}
	reqID := uuid.NewString()
	start := time.Now()

	out, st, err := stencil.GenerateBytes(data, p)
	switch {
	case errors.Is(err, raster.ErrDecode):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, grid.ErrInvalidParameter):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.log.Error("generate stencil", "request", reqID, "err", err)
		http.Error(w, "stencil generation failed", http.StatusInternalServerError)
		return
	}

	if st.Degenerate() {
		// Valid output by contract, but usually means the mask arrived
		// fully void; make it visible in the logs.
		s.log.Warn("all-void mask, emitted fallback triangle",
			"request", reqID, "file", filename)
	}

	if s.db != nil {
		rec := history.Conversion{
			ID:          reqID,
			Filename:    filename,
			WidthMM:     p.WidthMM,
			ThicknessMM: p.ThicknessMM,
			BorderMM:    p.BorderMM,
			Triangles:   st.Triangles,
			SizeBytes:   st.SizeBytes,
		}
		if err := s.db.Record(rec); err != nil {
			s.log.Error("record conversion", "request", reqID, "err", err)
		}
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="stencil.stl"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Write(out)

	s.log.Info("generated stencil",
		"request", reqID, "file", filename,
		"triangles", st.Triangles, "bytes", st.SizeBytes,
		"elapsed", time.Since(start))
}

func (s *Server) generateSVG(w http.ResponseWriter, r *http.Request) {
	data, filename, _, ok := s.upload(w, r)
	if !ok {
		return
	}
	img, err := raster.Decode(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	opts := vectorize.DefaultOptions()
	opts.Potrace = s.cfg.Potrace
	svg, err := vectorize.ToSVG(r.Context(), img, opts)
	if err != nil {
		s.log.Error("vectorize", "file", filename, "err", err)
		http.Error(w, "vectorization failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	io.WriteString(w, svg)
}

func (s *Server) previewMesh(w http.ResponseWriter, r *http.Request) {
	data, filename, p, ok := s.upload(w, r)
	if !ok {
		return
	}
	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	img, err := raster.Decode(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	g, err := grid.Build(img, grid.Options{
		WidthMM:       p.WidthMM,
		BorderMM:      p.BorderMM,
		MaxResolution: p.MaxResolution,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m, err := preview.Generate(g, p.ThicknessMM, 0)
	if err != nil {
		s.log.Error("preview", "file", filename, "err", err)
		http.Error(w, "preview generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		s.log.Error("encode preview", "file", filename, "err", err)
	}
}

func (s *Server) listConversions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conversions := []history.Conversion{}
	if s.db != nil {
		recent, err := s.db.Recent(50)
		if err != nil {
			s.log.Error("list conversions", "err", err)
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		if recent != nil {
			conversions = recent
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(conversions); err != nil {
		s.log.Error("encode conversions", "err", err)
	}
}
