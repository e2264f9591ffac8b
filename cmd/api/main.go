package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"call-insights-go/internal/aggregator"
	"call-insights-go/internal/coaching"
	"call-insights-go/internal/export"
	"call-insights-go/internal/ingest"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/repeat"
	"call-insights-go/internal/types"
)

// maxUploadBytes bounds one multipart upload batch.
const maxUploadBytes = 200 << 20

// server holds the latest ingested batch. Uploads replace the snapshot under
// the mutex; aggregation and repeat analysis are pure functions over it, so
// reads only need the slice copy.
type server struct {
	log *logger.Logger

	mu    sync.Mutex
	calls []types.Call
}

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "call-insights-go").Info("starting service")

	s := &server{log: log}

	// Optionally pre-load transcript files at boot so the dashboard has data
	// before the first upload.
	if seed := os.Getenv("SEED_FILES"); seed != "" {
		session := ingest.NewSession(log)
		report := session.ProcessPaths(splitList(seed))
		s.calls = session.Calls
		log.WithField("calls", report.CallsParsed).
			WithField("duplicates", report.DuplicatesSkipped).
			Info("seed files loaded")
	}

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/fetch", s.handleFetch)
	mux.HandleFunc("/aggregate", s.handleAggregate)
	mux.HandleFunc("/repeat-callers", s.handleRepeatCallers)
	mux.HandleFunc("/coaching-summary", s.handleCoachingSummary)
	mux.HandleFunc("/export", s.handleExport)

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

// handleUpload ingests a multipart batch under the "files" field. An optional
// "zip_password" field unlocks encrypted archives. The batch replaces any
// previously loaded data.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "upload")
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		reqLog.WithError(err).Warn("bad multipart body")
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		http.Error(w, "no files uploaded", http.StatusBadRequest)
		return
	}

	files := make([]ingest.File, 0, len(parts))
	for _, fh := range parts {
		f, err := fh.Open()
		if err != nil {
			reqLog.WithError(err).Warn("cannot open upload part")
			http.Error(w, "cannot read uploaded file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			reqLog.WithError(err).Warn("cannot read upload part")
			http.Error(w, "cannot read uploaded file", http.StatusBadRequest)
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	session := ingest.NewSession(s.log)
	session.ZipPassword = r.FormValue("zip_password")

	start := time.Now()
	report := session.ProcessFiles(files)
	reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).
		WithField("calls", report.CallsParsed).
		Info("batch ingested")

	s.mu.Lock()
	s.calls = session.Calls
	s.mu.Unlock()

	writeJSON(w, reqLog, report)
}

// handleFetch downloads one export over HTTP and ingests it, appending to the
// current dataset.
func (s *server) handleFetch(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "fetch")
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	timeoutSec := 40
	if t := r.URL.Query().Get("timeout_sec"); t != "" {
		fmt.Sscanf(t, "%d", &timeoutSec)
	}

	data, name, err := ingest.FetchExport(rawURL, time.Duration(timeoutSec)*time.Second)
	if err != nil {
		reqLog.WithError(err).Warn("fetch failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	session := ingest.NewSession(s.log)
	s.mu.Lock()
	session.AdoptCalls(s.calls)
	report := session.ProcessFile(name, data)
	s.calls = session.Calls
	s.mu.Unlock()

	writeJSON(w, reqLog, report)
}

// snapshot copies the current call set out from under the mutex. Published
// calls are never mutated after the swap (ingest clones before enriching),
// so the shallow copy is safe for concurrent readers.
func (s *server) snapshot() []types.Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// parseWeights reads the four weight query parameters, falling back to the
// defaults for any that are absent or malformed.
func parseWeights(r *http.Request) types.FormulaWeights {
	w := types.DefaultWeights()
	read := func(key string, dst *int) {
		if v := r.URL.Query().Get(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	read("points_positive_flag", &w.PositiveFlag)
	read("points_short_positive_call", &w.ShortPositiveCall)
	read("penalty_flag", &w.NegativeFlag)
	read("penalty_callback", &w.CallbackPenalty)
	return w
}

func (s *server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "aggregate")
	filter := types.Filter{Agent: r.URL.Query().Get("agent")}
	weights := parseWeights(r)

	start := time.Now()
	res := aggregator.Aggregate(s.snapshot(), filter, weights)
	reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).
		WithField("calls", res.CallCount).
		Info("aggregation complete")

	writeJSON(w, reqLog, res)
}

func (s *server) handleRepeatCallers(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "repeat_callers")
	callers := repeat.Analyze(s.snapshot())
	reqLog.WithField("repeat_callers", len(callers)).Info("repeat analysis complete")
	writeJSON(w, reqLog, callers)
}

// handleCoachingSummary returns the rendered coaching texts plus badges for
// the current dataset under the requested filter/weights.
func (s *server) handleCoachingSummary(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "coaching_summary")
	calls := s.snapshot()
	res := aggregator.Aggregate(calls, types.Filter{Agent: r.URL.Query().Get("agent")}, parseWeights(r))
	callers := repeat.Analyze(calls)

	writeJSON(w, reqLog, map[string]interface{}{
		"outlook":       coaching.OutlookText(res),
		"summary":       coaching.SummaryText(res),
		"badges":        coaching.Badges(res),
		"repeat_report": coaching.RepeatReport(callers),
	})
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "export")
	calls := s.snapshot()
	if len(calls) == 0 {
		http.Error(w, "no calls loaded", http.StatusNotFound)
		return
	}
	data, err := export.AuditTemplate(calls)
	if err != nil {
		reqLog.WithError(err).Error("export failed")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_template.xlsx"`)
	if _, err := w.Write(data); err != nil {
		reqLog.WithError(err).Error("failed to write response")
	}
	reqLog.WithField("calls", len(calls)).WithField("bytes", len(data)).Info("export written")
}

func writeJSON(w http.ResponseWriter, reqLog *logrus.Entry, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		reqLog.WithField("error", err.Error()).Error("failed to write response")
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
