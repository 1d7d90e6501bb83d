package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/Veraticus/concord/internal/common"
)

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Data     any       `json:"data"`
	Error    *APIError `json:"error,omitempty"`
	Status   string    `json:"status"`
	Metadata Metadata  `json:"metadata"`
}

// APIError is the error body of a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// Error codes that are not error kinds.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeTrainingInProgress = "training_in_progress"
)

func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, &APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: Metadata{Timestamp: time.Now().UTC()},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, &APIResponse{
		Status:   "error",
		Metadata: Metadata{Timestamp: time.Now().UTC()},
		Error:    &APIError{Code: code, Message: message},
	})
}

// respondErr maps err to a status code by its kind.
func respondErr(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrTrainingInProgress) {
		respondError(w, http.StatusConflict, CodeTrainingInProgress, err.Error())
		return
	}

	kind := common.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case common.KindInputValidation:
		status = http.StatusBadRequest
	case common.KindEncoding:
		status = http.StatusUnprocessableEntity
	case common.KindModelUnavailable:
		status = http.StatusServiceUnavailable
	case common.KindTrainingData:
		status = http.StatusUnprocessableEntity
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("API request failed", "error", err)
		message = "internal error"
	}
	respondError(w, status, string(kind), message)
}
