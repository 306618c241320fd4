package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"passeq/internal/model"
	"passeq/internal/passfile"
	"passeq/internal/sequence"
)

//go:embed static/*
var staticFS embed.FS

// Server exposes one sequence over HTTP. Handlers take the lock for every
// read and edit since a Sequence is not safe for concurrent use.
type Server struct {
	mu  sync.Mutex
	seq *sequence.Sequence
	log *zap.Logger

	registry *prometheus.Registry
	edits    *prometheus.CounterVec
	requests prometheus.Counter
	passes   prometheus.Gauge
}

// NewServer wraps seq. A nil logger disables logging.
func NewServer(seq *sequence.Sequence, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		seq:      seq,
		log:      log,
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passeq_edits_total",
			Help: "Sequence edits handled, by operation and result",
		}, []string{"op", "result"}),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "passeq_http_requests_total",
			Help: "Total HTTP API requests handled by passeq",
		}),
		passes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "passeq_passes",
			Help: "Top-level passes in the sequence after the last request",
		}),
	}
	s.registry.MustRegister(s.edits, s.requests, s.passes)
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	subFS, _ := fs.Sub(staticFS, "static")
	mux.Handle("/", http.FileServer(http.FS(subFS)))
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/sequence", s.count(s.handleSequence))
	mux.HandleFunc("GET /api/file", s.count(s.handleFile))
	mux.HandleFunc("GET /api/help", s.count(handleHelp))
	mux.HandleFunc("POST /api/reload", s.count(s.handleReload))
	mux.HandleFunc("POST /api/move", s.count(s.edit("move", s.doMove)))
	mux.HandleFunc("POST /api/rename", s.count(s.edit("rename", s.doRename)))
	mux.HandleFunc("POST /api/duplicate", s.count(s.edit("duplicate", s.doDuplicate)))
	mux.HandleFunc("POST /api/delete", s.count(s.edit("delete", s.doDelete)))
	mux.HandleFunc("POST /api/active", s.count(s.edit("active", s.doActive)))
	mux.HandleFunc("POST /api/type", s.count(s.edit("type", s.doType)))
	mux.HandleFunc("POST /api/new-pass", s.count(s.edit("new-pass", s.doNewPass)))
	mux.HandleFunc("POST /api/new-folder", s.count(s.edit("new-folder", s.doNewFolder)))
	mux.HandleFunc("POST /api/touch", s.count(s.edit("touch", s.doTouch)))
	return mux
}

// ListenAndServe serves on addr until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	fmt.Printf("Starting passeq web server at http://localhost%s\n", addr)
	fmt.Printf("Sequence: %s\n", s.seq.SequencePath())
	s.log.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) count(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.requests.Inc()
		h(w, r)
	}
}

// EditRequest is the body of every edit endpoint. Each operation reads the
// fields it needs.
type EditRequest struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Direction string `json:"direction,omitempty"`
	NewName   string `json:"newName,omitempty"`
	NewType   string `json:"newType,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Active    bool   `json:"active,omitempty"`
	AtEnd     bool   `json:"atEnd,omitempty"`
}

// errBadRequest marks request validation failures.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// SequenceResponse is what GET /api/sequence returns.
type SequenceResponse struct {
	Path          string           `json:"path"`
	Records       []*model.Record  `json:"records"`
	Summary       sequence.Summary `json:"summary"`
	Report        string           `json:"report"`
	VerboseReport string           `json:"verboseReport"`
	Version       string           `json:"version"`
}

func (s *Server) snapshot() SequenceResponse {
	sum := s.seq.Summarize()
	s.passes.Set(float64(sum.Passes))
	return SequenceResponse{
		Path:          s.seq.SequencePath(),
		Records:       s.seq.Records(),
		Summary:       sum,
		Report:        sequence.Report(s.seq, false),
		VerboseReport: sequence.Report(s.seq, true),
		Version:       model.Version,
	}
}

func (s *Server) handleSequence(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := s.snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.seq.Reload(); err != nil {
		s.log.Error("reload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot())
}

// handleFile returns the pass file of the record named by ?name= or the
// pass numbered ?pass=. Only files the sequence points at are served.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var rec *model.Record
	if p := r.URL.Query().Get("pass"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, badRequest("invalid pass number %q", p))
			return
		}
		rec = s.seq.ByPassNumber(n)
	} else {
		rec = s.seq.Find(r.URL.Query().Get("type"), r.URL.Query().Get("name"))
	}
	path := rec.FilePath
	s.mu.Unlock()

	if !rec.Exists() || path == "" {
		writeError(w, http.StatusNotFound, errors.New("no pass file for that record"))
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(content)
}

func handleHelp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(model.Help()))
}

// edit decodes an EditRequest, applies op under the lock and answers with
// the updated sequence.
func (s *Server) edit(name string, op func(EditRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.edits.WithLabelValues(name, "invalid").Inc()
			writeError(w, http.StatusBadRequest, badRequest("decode body: %v", err))
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := op(req); err != nil {
			status := http.StatusInternalServerError
			result := "error"
			switch {
			case errors.Is(err, errBadRequest), errors.Is(err, sequence.ErrInvalidName):
				status, result = http.StatusBadRequest, "invalid"
			case errors.Is(err, fs.ErrExist):
				status, result = http.StatusConflict, "conflict"
			}
			s.edits.WithLabelValues(name, result).Inc()
			s.log.Warn("edit failed", zap.String("op", name), zap.Error(err))
			writeError(w, status, err)
			return
		}
		s.edits.WithLabelValues(name, "ok").Inc()
		writeJSON(w, http.StatusOK, s.snapshot())
	}
}

func (s *Server) doMove(req EditRequest) error {
	dir, err := sequence.ParseDirection(req.Direction)
	if err != nil {
		return badRequest("%v", err)
	}
	return s.seq.Move(req.Type, req.Name, dir)
}

func (s *Server) doRename(req EditRequest) error {
	if req.NewName == "" {
		return badRequest("newName is required")
	}
	return s.seq.Rename(req.Type, req.Name, req.NewName)
}

func (s *Server) doDuplicate(req EditRequest) error {
	if req.NewName == "" {
		return badRequest("newName is required")
	}
	return s.seq.Duplicate(req.Type, req.Name, req.NewName)
}

func (s *Server) doDelete(req EditRequest) error {
	mode := sequence.DeleteRegion
	switch req.Mode {
	case "", "region":
	case "boundary":
		mode = sequence.DeleteBoundary
	default:
		return badRequest("unknown delete mode %q", req.Mode)
	}
	return s.seq.Delete(req.Type, req.Name, mode)
}

func (s *Server) doActive(req EditRequest) error {
	return s.seq.SetActive(req.Type, req.Name, req.Active)
}

func (s *Server) doType(req EditRequest) error {
	if req.NewType == "" {
		return badRequest("newType is required")
	}
	return s.seq.SetType(req.Type, req.Name, req.NewType)
}

func (s *Server) doNewPass(req EditRequest) error {
	kind, err := passfile.ParseKind(req.Kind)
	if err != nil {
		return badRequest("%v", err)
	}
	if req.NewName == "" {
		return badRequest("newName is required")
	}
	if req.AtEnd {
		return s.seq.InsertNewPassAtEnd(req.NewName, kind)
	}
	return s.seq.InsertNewPass(req.Type, req.Name, req.NewName, kind)
}

func (s *Server) doNewFolder(req EditRequest) error {
	if req.NewName == "" {
		return badRequest("newName is required")
	}
	if req.AtEnd {
		return s.seq.InsertNewFolderAtEnd(req.NewName)
	}
	return s.seq.InsertNewFolder(req.Type, req.Name, req.NewName)
}

func (s *Server) doTouch(EditRequest) error {
	return s.seq.TouchTraceArtifacts()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
