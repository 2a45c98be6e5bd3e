package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// StatusResponse is the {status, message} body every endpoint uses for
// acknowledgements and errors.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

// Failed writes {"status":"failed","message":msg}.
func Failed(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, StatusResponse{Status: StatusFailed, Message: msg})
}
