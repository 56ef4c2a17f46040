package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/vidlex/internal/engine"
	"github.com/knowledge-engine/vidlex/internal/export"
)

const maxRequestBody = 1 << 20

type Server struct {
	Engine *engine.Engine
	Logger *logrus.Entry
	Router *http.ServeMux
}

func NewServer(eng *engine.Engine, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.WithField("component", "api")
	}
	s := &Server{
		Engine: eng,
		Logger: logger,
		Router: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	s.Router.HandleFunc("/api/v1/export", s.handleExport)
	s.Router.HandleFunc("/api/v1/status", s.handleStatus)
}

func (s *Server) Start(addr string) error {
	s.Logger.Infof("Starting API Server on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// Responses
type ErrorResponse struct {
	Error    string           `json:"error"`
	Failures []engine.Failure `json:"failures,omitempty"`
}

type AnalyzeResponse struct {
	*engine.Report
	Markup []ItemMarkup `json:"markup"`
}

// ItemMarkup is an item's fields rendered with highlight tags
type ItemMarkup struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

type StatusResponse struct {
	Provider      string `json:"provider"`
	CacheEnabled  bool   `json:"cache_enabled"`
	Runs          int64  `json:"runs"`
	VideosFetched int64  `json:"videos_fetched"`
	CacheHits     int64  `json:"cache_hits"`
	Failures      int64  `json:"failures"`
	LastError     string `json:"last_error,omitempty"`
	Uptime        string `json:"uptime"`
}

// Handlers

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, ok := s.runAnalysis(w, r)
	if !ok {
		return
	}

	resp := AnalyzeResponse{Report: report, Markup: make([]ItemMarkup, len(report.Result.Items))}
	for i, item := range report.Result.Items {
		m := ItemMarkup{
			ID:          item.ID,
			Title:       item.Title.Markup(),
			Tags:        make([]string, len(item.Tags)),
			Description: item.Description.Markup(),
		}
		for j, tag := range item.Tags {
			m.Tags[j] = tag.Markup()
		}
		resp.Markup[i] = m
	}

	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatXLSX
	}
	if format != export.FormatXLSX && format != export.FormatCSV {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unsupported format %q", format)})
		return
	}

	report, ok := s.runAnalysis(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, report.Videos, report.Result); err != nil {
		s.Logger.WithError(err).Error("Export failed")
		jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="vidlex-%s.%s"`, report.RunID, format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.Engine.Stats()
	jsonResponse(w, http.StatusOK, StatusResponse{
		Provider:      s.Engine.Provider.Name(),
		CacheEnabled:  s.Engine.Cache != nil,
		Runs:          stats.Runs,
		VideosFetched: stats.VideosFetched,
		CacheHits:     stats.CacheHits,
		Failures:      stats.Failures,
		LastError:     stats.LastError,
		Uptime:        time.Since(stats.StartTime).Round(time.Second).String(),
	})
}

// runAnalysis decodes the request body and runs the engine. On failure it
// writes the error response and returns false.
func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request) (*engine.Report, bool) {
	var req engine.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
		return nil, false
	}
	if len(req.Refs) == 0 && len(req.Items) == 0 {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "refs or items are required"})
		return nil, false
	}
	if req.Threshold < 0 {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "threshold must not be negative"})
		return nil, false
	}

	report, err := s.Engine.Analyze(r.Context(), req)
	switch {
	case errors.Is(err, engine.ErrNoItems):
		jsonResponse(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Failures: report.Failures})
		return nil, false
	case err != nil:
		s.Logger.WithError(err).Error("Analysis failed")
		jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return report, true
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
