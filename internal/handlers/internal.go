// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"postflow/internal/apperr"
	"postflow/internal/dispatch"
	"postflow/internal/imaging"
	"postflow/internal/models"
	"postflow/internal/optimize"
	"postflow/internal/storage"
)

// Translator runs translation for one source post.
type Translator interface {
	Dispatch(ctx context.Context, record models.Post) (dispatch.Result, error)
}

// ImagePipeline optimizes one raw upload.
type ImagePipeline interface {
	Run(ctx context.Context, ev optimize.Event) (optimize.Outcome, error)
}

// Internal groups the service-token protected webhooks.
type Internal struct {
	translator Translator
	images     ImagePipeline
}

// NewInternal creates the webhook handlers. translator and images may be
// nil when their backend is not configured; the endpoint then answers 503.
func NewInternal(translator Translator, images ImagePipeline) *Internal {
	return &Internal{translator: translator, images: images}
}

// errorBody is the JSON error shape of the internal endpoints.
type errorBody struct {
	Error string `json:"error"`
}

// TranslatePost handles POST /internal/translate-post with {record: {...}}.
// The report is returned with 200 for skips and partial failures alike.
func (h *Internal) TranslatePost(w http.ResponseWriter, r *http.Request) {
	if h.translator == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "translation is not configured"})
		return
	}

	var payload struct {
		Record *models.Post `json:"record"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if payload.Record == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing record"})
		return
	}

	res, err := h.translator.Dispatch(r.Context(), *payload.Record)
	var de *apperr.DispatchError
	switch {
	case err == nil, errors.As(err, &de):
		writeJSON(w, http.StatusOK, res)
	case apperr.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		slog.Error("translate-post failed", "slug", payload.Record.Slug, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "translation failed"})
	}
}

// storageEvent accepts the shapes storage webhooks send: a database
// trigger record, the same record nested under "object", or a flat pair.
type storageEvent struct {
	Record *struct {
		BucketID string `json:"bucket_id"`
		Name     string `json:"name"`
		Object   *struct {
			BucketID string `json:"bucket_id"`
			Name     string `json:"name"`
		} `json:"object"`
	} `json:"record"`
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func (e storageEvent) event() optimize.Event {
	switch {
	case e.Record != nil && e.Record.Object != nil:
		return optimize.Event{Bucket: e.Record.Object.BucketID, Name: e.Record.Object.Name}
	case e.Record != nil:
		return optimize.Event{Bucket: e.Record.BucketID, Name: e.Record.Name}
	}
	return optimize.Event{Bucket: e.Bucket, Name: e.Name}
}

// OptimizeImage handles POST /internal/optimize-image.
func (h *Internal) OptimizeImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "storage is not configured"})
		return
	}

	var payload storageEvent
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	ev := payload.event()

	out, err := h.images.Run(r.Context(), ev)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, out)
	case errors.Is(err, optimize.ErrWrongBucket), errors.Is(err, optimize.ErrMissingObject):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, storage.ErrObjectNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "object not found"})
	case errors.Is(err, imaging.ErrTooLarge):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	default:
		slog.Error("optimize-image failed", "bucket", ev.Bucket, "name", ev.Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "optimization failed"})
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
