package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteSuccess(w, statusCode, ErrorResponse{Code: code, Message: message})
}

func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}
