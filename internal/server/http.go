package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/botswana-harvard/edc-configuration/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header. Every request is logged.
func (s *ConfigurationServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/attributes", s.handleListAttributes)
	mux.HandleFunc("GET /v1/attributes/{name}", s.handleGetAttribute)
	mux.HandleFunc("PUT /v1/attributes/{name}", s.handleSetAttribute)
	mux.HandleFunc("DELETE /v1/attributes/{name}", s.handleDeleteAttribute)
	mux.HandleFunc("POST /v1/convert", s.handleConvert)
	return LoggingMiddleware(s.logger, AuthMiddleware(authToken, mux))
}

// handleHealth handles GET /v1/health.
func (s *ConfigurationServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListAttributes handles GET /v1/attributes?category=...
func (s *ConfigurationServer) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	attrs, err := s.listAttributes(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attributes": attrs})
}

// handleGetAttribute handles GET /v1/attributes/{name}.
func (s *ConfigurationServer) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	attr, err := s.getAttribute(r.Context(), name)
	if err != nil {
		s.writeStoreError(w, err, name)
		return
	}
	writeJSON(w, http.StatusOK, attr)
}

// handleSetAttribute handles PUT /v1/attributes/{name}.
func (s *ConfigurationServer) handleSetAttribute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req SetAttributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	attr, err := s.setAttribute(r.Context(), name, &req)
	if err != nil {
		s.writeStoreError(w, err, name)
		return
	}
	writeJSON(w, http.StatusOK, attr)
}

// handleDeleteAttribute handles DELETE /v1/attributes/{name}.
func (s *ConfigurationServer) handleDeleteAttribute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.deleteAttribute(r.Context(), name); err != nil {
		s.writeStoreError(w, err, name)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// convertRequest is the JSON body for POST /v1/convert.
type convertRequest struct {
	Value   string `json:"value"`
	Convert *bool  `json:"convert,omitempty"`
}

// handleConvert handles POST /v1/convert. It reports how a value would be
// stored without writing it.
func (s *ConfigurationServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	conv := true
	if req.Convert != nil {
		conv = *req.Convert
	}
	v := s.encodeValue(req.Value, conv)
	writeJSON(w, http.StatusOK, map[string]any{
		"value":   v.Value,
		"convert": v.Convert,
		"kind":    v.Kind,
		"decoded": v.Decoded,
	})
}

// writeStoreError maps errors from the configuration manager to HTTP status
// codes.
func (s *ConfigurationServer) writeStoreError(w http.ResponseWriter, err error, name string) {
	var ve *model.ValidationError
	var ie inputError
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, describe(err, name))
	case errors.As(err, &ve), errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "attribute", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
