package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/logging"
)

// maxJSONBodyBytes caps the size of a decoded JSON request body.
const maxJSONBodyBytes = 1 << 20 // 1 MiB

// decodeJSON decodes r's body into v, capping its size and wrapping any
// decode failure as a Validation error.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.Validation, err, "invalid request body")
	}
	return nil
}

// errorResponse is the JSON body written for any non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps an apperr.Kind to the HTTP status code the presentation
// layer reports for it. Database and IO failures are deliberately opaque —
// their detail goes to the log, not the client.
func statusFor(err error) (int, string) {
	ae, ok := err.(*apperr.Error)
	if !ok {
		return http.StatusInternalServerError, "internal server error"
	}

	switch ae.Kind {
	case apperr.DoesNotExist:
		return http.StatusNotFound, ae.Message
	case apperr.AlreadyExists:
		return http.StatusConflict, ae.Message
	case apperr.Batch:
		return http.StatusServiceUnavailable, ae.Message
	case apperr.InvalidFileName, apperr.UnsupportedFileType, apperr.InvalidEmbeddingModel,
		apperr.InvalidProvider, apperr.ParseConfig, apperr.Chunk, apperr.Validation, apperr.Regex:
		return http.StatusBadRequest, ae.Message
	case apperr.ParsePdf, apperr.DocxRead:
		return http.StatusUnprocessableEntity, ae.Message
	case apperr.Http:
		if ae.UpstreamStatus != 0 {
			return ae.UpstreamStatus, ae.Message
		}
		return http.StatusBadGateway, ae.Message
	case apperr.Embedding, apperr.Qdrant, apperr.Weaviate:
		return http.StatusBadGateway, ae.Message
	case apperr.Database, apperr.IO, apperr.Serde:
		return http.StatusInternalServerError, "internal server error"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError maps err to a status code via statusFor, logs the full error at
// the appropriate level, and writes a JSON errorResponse.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	log := logging.FromContext(r.Context())

	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.Any("error", err), slog.Int("status", status))
	} else {
		log.Warn("request rejected", slog.Any("error", err), slog.Int("status", status))
	}

	writeJSON(w, status, errorResponse{Error: msg, Kind: apperr.KindOf(err).String()})
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
