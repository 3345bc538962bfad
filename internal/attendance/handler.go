package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler exposes the Service over HTTP.
type Handler struct {
	svc     *Service
	limiter *RateLimiter
	logger  *slog.Logger
}

func NewHandler(svc *Service, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:     svc,
		limiter: NewRateLimiter(cfg.SubmitRatePerMinute, time.Minute),
		logger:  logger,
	}
}

// Routes mounts GET /, POST /, GET /export and GET /healthz.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", h.ShowToday)
	r.Post("/", h.Submit)
	r.Get("/export", h.Export)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// ShowToday matches GET /
func (h *Handler) ShowToday(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Today(r.Context())
	if err != nil {
		h.writeStorageError(w, r, err)
		return
	}
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		view.Flash = &Flash{Status: status, Message: q.Get("message")}
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit matches POST /
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(r.Context())

	if ok, retryAfter := h.limiter.Allow(clientKey(r)); !ok {
		w.Header().Set("Retry-After", formatRetryAfter(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, ErrorBody{
			Code:      "RATE_LIMITED",
			Message:   "too many submissions",
			CorrID:    CorrIDFromContext(r.Context()),
			Retryable: true,
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: "BAD_REQUEST", Message: err.Error(), CorrID: CorrIDFromContext(r.Context())})
		return
	}
	form := SubmitForm{
		EmployeeID:   r.PostFormValue("emp_id"),
		EmployeeName: r.PostFormValue("emp_name"),
		Department:   r.PostFormValue("department"),
		Action:       r.PostFormValue("action"),
	}

	outcome, err := h.svc.Submit(r.Context(), form)
	switch {
	case errors.Is(err, ErrRejected):
		log.Info("submission rejected", "empId", form.EmployeeID, "reason", err.Error())
		redirectWithFlash(w, r, "error", rejectionMessage(err))
	case err != nil:
		h.writeStorageError(w, r, err)
	default:
		log.Info("attendance recorded", "empId", outcome.Event.EmployeeID, "action", outcome.Event.Action)
		redirectWithFlash(w, r, "success", outcome.Message)
	}
}

// Export matches GET /export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(r.Context())
	format, err := ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: "BAD_REQUEST", Message: err.Error(), CorrID: CorrIDFromContext(r.Context())})
		return
	}

	sent := false
	err = h.svc.Export(r.Context(), format, func(filename string, f *os.File) error {
		info, err := f.Stat()
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		w.WriteHeader(http.StatusOK)
		sent = true
		_, err = io.Copy(w, f)
		return err
	})
	switch {
	case err == nil:
	case sent:
		log.Warn("export interrupted", "error", err)
	case errors.Is(err, ErrPDFDisabled):
		writeJSON(w, http.StatusNotFound, ErrorBody{Code: "NOT_FOUND", Message: err.Error(), CorrID: CorrIDFromContext(r.Context())})
	default:
		h.writeStorageError(w, r, err)
	}
}

func (h *Handler) writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	corrID := CorrIDFromContext(r.Context())
	LoggerFromContext(r.Context()).Error("request failed", "error", err)
	message := "internal error"
	var se *StorageError
	if errors.As(err, &se) {
		message = "storage error"
	}
	writeJSON(w, http.StatusInternalServerError, ErrorBody{
		Code:      "INTERNAL_ERROR",
		Message:   message,
		CorrID:    corrID,
		Retryable: true,
	})
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "All fields are required."
	case errors.Is(err, ErrInvalidAction):
		return "Action must be in or out."
	case errors.Is(err, ErrNoPriorCheckIn):
		return "Cannot check out without checking in first."
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "You are already checked in."
	}
	return err.Error()
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, status, message string) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("message", message)
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func formatRetryAfter(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
