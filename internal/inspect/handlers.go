package inspect

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/ango/internal/errors"
	"github.com/vango-dev/ango/pkg/doc"
	"github.com/vango-dev/ango/pkg/host/memhost"
)

// maxDocumentSize bounds POST /render bodies.
const maxDocumentSize = 1 << 20

// Handler returns the inspector's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/tree", s.handleTree)
	r.Get("/mutations", s.handleMutations)
	r.Post("/render", s.handleRender)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	r.Get("/ws", s.stream.handle)
	return r
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "markup" {
		out, err := s.Markup(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, out)
		return
	}

	t, err := s.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleMutations(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "since must be a non-negative integer", http.StatusBadRequest)
			return
		}
		since = n
	}

	batches := s.Batches(since)
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, b := range batches {
			_, _ = io.WriteString(w, "# "+strconv.Itoa(b.Seq)+" "+b.Source+"\n")
			_, _ = io.WriteString(w, memhost.FormatLog(b.Mutations))
		}
		return
	}
	s.writeJSON(w, http.StatusOK, batches)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	d, err := doc.Decode(data, requestFormat(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	batch, err := s.Render(r.Context(), d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, batch)
}

// requestFormat picks YAML when the query or content type asks for it.
func requestFormat(r *http.Request) doc.Format {
	if f := r.URL.Query().Get("format"); f != "" {
		if strings.EqualFold(f, "yaml") {
			return doc.YAML
		}
		return doc.JSON
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return doc.YAML
	}
	return doc.JSON
}

type errorResponse struct {
	Error *errors.Error `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := errors.Classify(err, "")
	status := http.StatusInternalServerError
	switch e.Code {
	case errors.CodeInvalidDocument, errors.CodeUnknownComponent:
		status = http.StatusBadRequest
	case errors.CodeRender, errors.CodeUpdateLoop:
		status = http.StatusUnprocessableEntity
	}
	s.logger.Debug("request failed", "status", status, "error", err)
	s.writeJSON(w, status, errorResponse{Error: e})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encode response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}
