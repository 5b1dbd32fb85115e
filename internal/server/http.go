package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/health-reports/constants"
	"github.com/joseph-ayodele/health-reports/internal/classify"
	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/entity"
	"github.com/joseph-ayodele/health-reports/internal/pipeline"
)

const (
	credentialHeader = "X-OpenRouter-Key"
	requestIDHeader  = "X-Request-ID"
	latestID         = "latest"
)

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

type HTTPHandler struct {
	svc       *ReportService
	health    HealthFunc
	maxUpload int64
	logger    *slog.Logger
}

// NewHTTPHandler returns the HTTP API router. maxUpload bounds the request
// body; values <= 0 fall back to the document size limit plus form overhead.
func NewHTTPHandler(svc *ReportService, health HealthFunc, maxUpload int64, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = constants.MaxDocumentBytes + 1<<20
	}
	h := &HTTPHandler{svc: svc, health: health, maxUpload: maxUpload, logger: logger}

	r := mux.NewRouter()
	r.Use(h.requestID, h.recovery)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/models", h.ListModels).Methods(http.MethodGet)
	api.HandleFunc("/reports", h.Upload).Methods(http.MethodPost)
	api.HandleFunc("/reports", h.Clear).Methods(http.MethodDelete)
	api.HandleFunc("/reports/{id}", h.GetReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}/summary", h.Summary).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}/export.xlsx", h.Export).Methods(http.MethodGet)
	return r
}

func (h *HTTPHandler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rid := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if rid != "" {
			ctx = common.WithRequestID(ctx, rid)
		} else {
			ctx, rid = common.EnsureRequestID(ctx)
		}
		w.Header().Set(requestIDHeader, rid)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		h.logger.Info("http.request",
			"req_id", rid,
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *HTTPHandler) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("http.panic", "req_id", common.RequestIDFromContext(r.Context()), "panic", rec)
				h.respondError(w, fmt.Errorf("%w: panic: %v", common.ErrInternal, rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		h.respondError(w, oversize(r.ContentLength))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.respondError(w, oversize(tooBig.Limit+1))
			return
		}
		h.respondError(w, fmt.Errorf("%w: invalid form data: %v", common.ErrInvalidInput, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, fmt.Errorf("%w: no file provided", common.ErrInvalidInput))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxDocumentBytes+1))
	if err != nil {
		h.respondError(w, fmt.Errorf("%w: read upload: %v", common.ErrInternal, err))
		return
	}

	rep, err := h.svc.Analyze(r.Context(), UploadRequest{
		Filename:   header.Filename,
		Data:       data,
		Credential: r.Header.Get(credentialHeader),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, rep)
}

func oversize(n int64) error {
	return common.NewAppError(common.CodeOversizeDocument,
		fmt.Sprintf("upload is %d bytes or more, maximum is %d", n, constants.MaxDocumentBytes), common.ErrOversizeDocument)
}

func (h *HTTPHandler) lookup(ctx context.Context, id string) (*entity.Report, error) {
	if id == "" || id == latestID {
		return h.svc.Latest(ctx)
	}
	return h.svc.Get(ctx, id)
}

// GetReport serves one report. Query parameters shape the metrics list:
// category and q filter, at_risk=true keeps warning and danger rows, and
// sort=risk orders danger first.
func (h *HTTPHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.lookup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}

	q := r.URL.Query()
	out := *rep
	if c, s := q.Get("category"), q.Get("q"); c != "" || s != "" {
		out.Metrics = classify.Filter(out.Metrics, c, s)
	}
	if atRisk, _ := strconv.ParseBool(q.Get("at_risk")); atRisk {
		out.Metrics = classify.AtRisk(out.Metrics)
	}
	if strings.EqualFold(q.Get("sort"), "risk") {
		out.Metrics = classify.SortForDisplay(out.Metrics)
	}
	h.respondJSON(w, http.StatusOK, &out)
}

type summaryResponse struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Type       string              `json:"type"`
	Risks      classify.RiskCounts `json:"risks"`
	Categories []string            `json:"categories"`
	Summary    string              `json:"summary"`
}

func (h *HTTPHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rep, err := h.lookup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	cats := rep.Categories
	if len(cats) == 0 {
		cats = classify.Categories(rep.Metrics)
	}
	h.respondJSON(w, http.StatusOK, summaryResponse{
		ID:         rep.ID,
		Title:      rep.Title,
		Type:       rep.Type,
		Risks:      classify.CountRisks(rep.Metrics),
		Categories: cats,
		Summary:    rep.Summary,
	})
}

func (h *HTTPHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == latestID {
		id = ""
	}
	b, err := h.svc.Export(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	name := "health-report.xlsx"
	if id != "" {
		name = fmt.Sprintf("health-report-%s.xlsx", id)
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		h.logger.Warn("http.export.write_failed", "err", err)
	}
}

func (h *HTTPHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models := h.svc.ListModels(r.Context(), r.Header.Get(credentialHeader))
	if models == nil {
		models = []string{}
	}
	h.respondJSON(w, http.StatusOK, map[string][]string{"models": models})
}

func (h *HTTPHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Clear(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("http.healthz.failed", "err", err)
			h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("http.encode_failed", "err", err)
	}
}

type errorResponse struct {
	Code          string `json:"code"`
	Error         string `json:"error"`
	ExtractedText string `json:"extracted_text,omitempty"`
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, err error) {
	status := common.HTTPStatus(err)
	body := errorResponse{Code: common.ErrorCode(err), Error: err.Error()}
	if body.Code == "" {
		body.Code = http.StatusText(status)
	}
	if status == http.StatusInternalServerError {
		body.Error = "internal server error"
	}
	var ae *pipeline.AnalysisError
	if errors.As(err, &ae) {
		body.ExtractedText = ae.ExtractedText
	}

	h.logger.Error("http.request.failed", "status", status, "code", body.Code, "err", err)
	h.respondJSON(w, status, body)
}
