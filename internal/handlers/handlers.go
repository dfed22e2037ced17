// Package handlers exposes the analysis runtime over HTTP. It is a thin
// caller of the dispatcher; all backend selection and fallback lives below.
package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/dermaven/skinsight-api/internal/dispatch"
)

// maxUploadSize bounds multipart parsing (10MB).
const maxUploadSize = 10 << 20

type Handler struct {
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
}

func NewHandler(dispatcher *dispatch.Dispatcher, log *slog.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, log: log}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Analyze accepts an uploaded image and returns the analysis as JSON. The
// field name is "image". Corrupt uploads still produce a valid (mock)
// response; only transport-level problems surface as HTTP errors.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	h.log.Debug("received upload", "filename", header.Filename, "size", header.Size)

	res, err := h.dispatcher.Analyze(data)
	if err != nil {
		h.log.Error("analysis failed", "error", err)
		http.Error(w, "Analysis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
