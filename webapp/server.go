// Package webapp exposes the scan pipeline over HTTP: a small UI, a JSON
// API, saved-report downloads, health, and metrics.
package webapp

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jerold2105/websentry-ai/config"
	"github.com/Jerold2105/websentry-ai/report"
	"github.com/Jerold2105/websentry-ai/scanner"
	"github.com/Jerold2105/websentry-ai/store"
	"github.com/Jerold2105/websentry-ai/summary"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

//go:embed templates/*.html
var templateFS embed.FS

var uiTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// errorResponse is the JSON shape returned on failure.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Server wires the scanner and store into HTTP handlers.
type Server struct {
	cfg     *config.Config
	scanner *scanner.Scanner
	store   *store.Store
	logger  *slog.Logger
	http    *http.Server
}

// NewServer creates the serve surface for the given configuration.
func NewServer(cfg *config.Config, sc *scanner.Scanner, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		scanner: sc,
		store:   st,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/scan", s.handleScanUI)
	mux.HandleFunc("/scan-json", s.handleScanJSON)
	mux.Handle("/reports/", http.StripPrefix("/reports/", http.FileServer(http.Dir(st.Dir()))))
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ----------------------------------------------------------------------------
// GET /
// ----------------------------------------------------------------------------

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := uiTemplates.ExecuteTemplate(w, "index.html", nil); err != nil {
		s.logger.Error("Render home failed", "error", err)
	}
}

// ----------------------------------------------------------------------------
// POST /scan — browser form entry point
// ----------------------------------------------------------------------------

func (s *Server) handleScanUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form", http.StatusBadRequest)
		return
	}

	url := strings.TrimSpace(r.PostFormValue("url"))
	if url == "" {
		http.Error(w, "Missing url", http.StatusBadRequest)
		return
	}

	rep, err := s.runScan(r.Context(), url)
	if err != nil {
		http.Error(w, fmt.Sprintf("Scan failed: %v", err), http.StatusBadGateway)
		return
	}

	artifacts, err := s.store.Save(rep)
	if err != nil {
		s.logger.Error("Saving report failed", "url", url, "error", err)
		http.Error(w, "Saving report failed", http.StatusInternalServerError)
		return
	}

	data := struct {
		Report        *report.Report
		JSONReportURL string
		HTMLReportURL string
	}{
		Report:        rep,
		JSONReportURL: "/reports/" + baseName(artifacts.JSONPath),
		HTMLReportURL: "/reports/" + baseName(artifacts.HTMLPath),
	}

	if err := uiTemplates.ExecuteTemplate(w, "result.html", data); err != nil {
		s.logger.Error("Render result failed", "error", err)
	}
}

// ----------------------------------------------------------------------------
// POST /scan-json — API entry point, optional API-key gate
// ----------------------------------------------------------------------------

// scanRequest is the request body for POST /scan-json.
type scanRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleScanJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "Method not allowed"})
		return
	}

	// The gate runs before anything touches the pipeline.
	if required := s.cfg.Server.APIKey; required != "" {
		provided := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(required)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "Invalid or missing API key"})
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Request body too large or unreadable"})
		return
	}

	var req scanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Malformed JSON body"})
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Missing url"})
		return
	}

	rep, err := s.runScan(r.Context(), url)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Detail: fmt.Sprintf("Scan failed: %v", err)})
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// ----------------------------------------------------------------------------
// GET /healthz
// ----------------------------------------------------------------------------

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runScan executes one scan and records its metrics.
func (s *Server) runScan(ctx context.Context, url string) (*report.Report, error) {
	started := time.Now()

	rep, err := s.scanner.Scan(ctx, url)
	scanDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		scansTotal.WithLabelValues("fetch_error").Inc()
		return nil, err
	}

	scansTotal.WithLabelValues("ok").Inc()
	// The fallback text is deterministic, so comparing against it tells us
	// whether the configured LLM path actually produced the summary.
	if s.cfg.LLM.Active() && rep.ExecutiveSummary == summary.RuleBased(rep.URL, rep.Title, rep.Findings) {
		llmFallbacks.Inc()
	}

	return rep, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing left to do.
		_ = err
	}
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
