package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tokenPlotter/internal/model"
)

type Response[T any] struct {
	Data T    `json:"data"`
	Meta Meta `json:"meta"`
}

type Meta struct {
	Base       string   `json:"base,omitempty"`
	Quotes     []string `json:"quotes,omitempty"`
	Title      string   `json:"title,omitempty"`
	YAxisLabel string   `json:"y_axis_label,omitempty"`
	FirstTs    int64    `json:"first_ts,omitempty"`
	LastTs     int64    `json:"last_ts,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode json response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
