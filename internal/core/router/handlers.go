package router

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geomap-sync/internal/core/geomap"
	"github.com/mohammed-shakir/geomap-sync/internal/core/mapview"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/viewheat"
)

const maxBody = 1 << 20

// Mount registers the session routes on r.
func Mount(r chi.Router, s *Session, logger *slog.Logger) {
	h := &handlers{s: s, log: logger}
	r.Get("/viewport", h.getViewport)
	r.Put("/viewport", h.putViewport)
	r.Post("/viewport/gesture", h.postGesture)
	r.Get("/viewport/cells", h.getCells)
	r.Get("/viewport/heat", h.getHeat)

	r.Route("/layers", func(r chi.Router) {
		r.Get("/", h.listLayers)
		r.Post("/", h.addLayer)
		r.Route("/{index}", func(r chi.Router) {
			r.Delete("/", h.removeLayer)
			r.Get("/tilejson", h.tileJSON)
			r.Get("/urls", h.urls)
			r.Post("/interact", h.interact)
		})
	})
}

type handlers struct {
	s   *Session
	log *slog.Logger
}

func (h *handlers) getViewport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.s.Viewport())
}

func (h *handlers) putViewport(w http.ResponseWriter, r *http.Request) {
	var u ViewportUpdate
	if !h.decode(w, r, &u) {
		return
	}
	st, err := h.s.SetViewport(r.Context(), u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) postGesture(w http.ResponseWriter, r *http.Request) {
	var g Gesture
	if !h.decode(w, r, &g) {
		return
	}
	st, err := h.s.Gesture(g)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) getCells(w http.ResponseWriter, r *http.Request) {
	cells, res, err := h.s.Cells()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if cells == nil {
		cells = model.Cells{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"res": res, "cells": cells})
}

func (h *handlers) getHeat(w http.ResponseWriter, r *http.Request) {
	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid n")
			return
		}
		n = parsed
	}
	top := h.s.Heat(n)
	if top == nil {
		top = []viewheat.Cell{}
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *handlers) listLayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.s.Layers())
}

func (h *handlers) addLayer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	info, err := h.s.AddLayer(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *handlers) removeLayer(w http.ResponseWriter, r *http.Request) {
	i, ok := index(w, r)
	if !ok {
		return
	}
	if err := h.s.RemoveLayer(i); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) tileJSON(w http.ResponseWriter, r *http.Request) {
	i, ok := index(w, r)
	if !ok {
		return
	}
	tj, err := h.s.TileJSON(r.Context(), i)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tj)
}

func (h *handlers) urls(w http.ResponseWriter, r *http.Request) {
	i, ok := index(w, r)
	if !ok {
		return
	}
	u, err := h.s.URLs(i)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) interact(w http.ResponseWriter, r *http.Request) {
	i, ok := index(w, r)
	if !ok {
		return
	}
	var in Interaction
	if !h.decode(w, r, &in) {
		return
	}
	fe, err := h.s.Interact(i, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if fe == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, fe)
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return false
	}
	return true
}

// writeError maps session errors to status codes.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, geomap.ErrInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotHostedData), errors.Is(err, ErrNotInteractive), errors.Is(err, mapview.ErrUnsupportedLayerKind):
		code = http.StatusConflict
	case errors.Is(err, mapview.ErrCallbackMissing):
		code = http.StatusUnprocessableEntity
	}
	if code == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, code, err.Error())
}

func index(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		writeError(w, http.StatusBadRequest, "invalid layer index")
		return 0, false
	}
	return i, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
