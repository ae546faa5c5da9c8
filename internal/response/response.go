// Package response writes the uniform JSON envelope used by every endpoint.
package response

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/logging"
)

// Envelope is the body of every HTTP response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// New builds an envelope; Success is always derived from the status code.
func New(status int, message string, data any) Envelope {
	return Envelope{
		StatusCode: status,
		Success:    IsSuccess(status),
		Message:    message,
		Data:       data,
	}
}

// IsSuccess reports whether status falls in the success range [200, 400).
func IsSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusBadRequest
}

// OK writes a 200 envelope.
func OK(ctx context.Context, w http.ResponseWriter, message string, data any) {
	JSON(ctx, w, http.StatusOK, message, data)
}

// Created writes a 201 envelope.
func Created(ctx context.Context, w http.ResponseWriter, message string, data any) {
	JSON(ctx, w, http.StatusCreated, message, data)
}

// JSON writes an envelope with the provided status.
func JSON(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	if !IsSuccess(status) {
		data = nil
	}
	write(ctx, w, New(status, message, data))
}

// Error classifies err and writes the matching failure envelope. Causes hidden
// from the client are logged here.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	c := apierror.Classify(err)

	logger := logging.FromContext(ctx)
	if c.Cause != nil {
		if c.Status >= http.StatusInternalServerError || c.Message == apierror.MessageDatabase {
			logger.Error("request error", "status", c.Status, "message", c.Message, "error", c.Cause)
		} else {
			logger.Debug("request error cause", "status", c.Status, "error", c.Cause)
		}
	}

	write(ctx, w, New(c.Status, c.Message, nil))
}

func write(ctx context.Context, w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", env.StatusCode, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case env.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", "status", env.StatusCode, "message", env.Message)
	case env.StatusCode >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", env.StatusCode, "message", env.Message)
	}
}
