// Package server exposes the review dashboard as a JSON API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// StatusErr is a sentinel error type carrying an HTTP status code.
type StatusErr int

func (se StatusErr) Error() string { return strings.ToLower(http.StatusText(int(se))) }

const (
	ErrBadRequest          StatusErr = http.StatusBadRequest
	ErrNotFound            StatusErr = http.StatusNotFound
	ErrMethodNotAllowed    StatusErr = http.StatusMethodNotAllowed
	ErrConflict            StatusErr = http.StatusConflict
	ErrInternalServerError StatusErr = http.StatusInternalServerError
)

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func respondJSON(w http.ResponseWriter, response any) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"status":"error","error":"JSON marshal error"}`)
		return
	}
	w.Write(b)
	w.Write([]byte("\n"))
}

// respondError extracts the status code from a wrapped StatusErr, defaulting
// to 500. Wrap with fmt.Errorf to set a specific code:
//
//	respondError(w, logger, fmt.Errorf("post %w", ErrNotFound))
func respondError(w http.ResponseWriter, logger *log.Logger, err error) {
	var se StatusErr
	if !errors.As(err, &se) {
		se = ErrInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(se))
	if se == ErrInternalServerError && logger != nil {
		logger.Printf("error %d: %v", int(se), err)
	}
	b, merr := json.MarshalIndent(&errorResponse{Status: "error", Error: err.Error()}, "", "  ")
	if merr != nil {
		fmt.Fprintf(w, `{"status":"error","error":"JSON marshal error"}`)
		return
	}
	w.Write(b)
	w.Write([]byte("\n"))
}
