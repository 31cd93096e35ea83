package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/planimport/internal/domain"
)

// Handler exposes the import service over HTTP.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with upload and listing endpoints.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost:
		h.handleUpload(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/categories"):
		h.handleCategories(w, r)
	case r.Method == http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	category := strings.TrimSpace(r.FormValue("category"))
	if category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}

	fileName := strings.TrimSpace(r.FormValue("fileName"))
	if fileName == "" {
		fileName = header.Filename
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	report, err := h.service.Import(r.Context(), Request{
		Category: category,
		FileName: fileName,
		Data:     bytes.NewReader(data),
	})
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	writeJSON(w, statusForReport(report), report)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.service.ListImports(r.Context(), category, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Categories())
}

// statusForError maps file-level errors onto HTTP statuses: duplicates are
// conflicts, caller mistakes are bad requests, schema trouble is a server
// fault.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateFile):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnsupportedCategory),
		errors.Is(err, domain.ErrNoValidColumns),
		errors.Is(err, domain.ErrParse):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// statusForReport maps the outcome mix onto HTTP statuses: all rows in is
// plain success, a mixed file is a multi-status, a file with nothing loaded
// is a bad request carrying the full report.
func statusForReport(report domain.ImportReport) int {
	switch {
	case report.Summary.FailedRows == 0:
		return http.StatusOK
	case report.Summary.SuccessfulRows > 0:
		return http.StatusMultiStatus
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
