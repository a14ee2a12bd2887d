package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/errs"
)

const maxBodyBytes = 1 << 20

type dataResponse struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type successResponse struct {
	Type string `json:"type"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeData answers {"type":"data","data":...}. A nil data is omitted.
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dataResponse{Type: "data", Data: data})
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successResponse{Type: "success"})
}

func writeKey(w http.ResponseWriter, key errs.Key) {
	writeJSON(w, key.Status, errorResponse{Type: "error", Error: key.Name})
}

// writeError maps err to its client-facing key. Unkeyed errors are logged
// and reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	key, ok := errs.KeyOf(err)
	if !ok {
		key = errs.KeyInternal
	}
	ctx := r.Context()
	if key.Status >= http.StatusInternalServerError {
		logging.Error(ctx, "request failed", slog.Any("err", errs.Loggable(err)))
	} else {
		logging.Debug(ctx, "request rejected", slog.String("key", key.Name), slog.String("err", err.Error()))
	}
	writeKey(w, key)
}

// decodeBody reads a JSON body into dst. Any malformed or mistyped body is a
// requestBodyInvalid error.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		return errs.Keyed(errs.Wrap(err, "decode body"), errs.KeyRequestBodyInvalid)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return errs.Keyed(errors.New("body must contain a single json value"), errs.KeyRequestBodyInvalid)
	}
	return nil
}
