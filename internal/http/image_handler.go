package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tuanvumaihuynh/catalog-sync/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/blob"
)

const imageCacheControl = "public, max-age=86400"

type imageHandler struct {
	*Service
	store blob.Store
}

func newImageHandler(s *Service, store blob.Store) *imageHandler {
	return &imageHandler{
		Service: s,
		store:   store,
	}
}

// GetImage streams a materialized image from the blob store. It serves GET and HEAD.
func (h *imageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		h.handleResponseError(w, r, apperr.ImageNotFoundErr)
		return
	}

	if r.Method == http.MethodHead {
		meta, err := h.store.Head(r.Context(), key)
		if err != nil {
			h.handleBlobError(w, r, err)
			return
		}
		h.writeImageHeaders(w, meta)
		w.WriteHeader(http.StatusOK)
		return
	}

	obj, err := h.store.Get(r.Context(), key)
	if err != nil {
		h.handleBlobError(w, r, err)
		return
	}
	defer obj.Body.Close()

	h.writeImageHeaders(w, obj.Metadata)

	if etag := w.Header().Get("ETag"); etag != "" && r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.WarnContext(r.Context(), "stream image",
			slog.String("key", key), slog.Any("error", err))
	}
}

func (h *imageHandler) writeImageHeaders(w http.ResponseWriter, meta blob.Metadata) {
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", imageCacheControl)
	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	if meta.ETag != "" {
		w.Header().Set("ETag", quoteETag(meta.ETag))
	}
	if !meta.LastModified.IsZero() {
		w.Header().Set("Last-Modified", meta.LastModified.UTC().Format(http.TimeFormat))
	}
}

func (h *imageHandler) handleBlobError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, blob.ErrNotFound) {
		h.handleResponseError(w, r, apperr.ImageNotFoundErr.WrapParent(err))
		return
	}
	h.handleResponseError(w, r, fmt.Errorf("blob store get: %w", err))
}

func quoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, `W/"`) {
		return etag
	}
	return strconv.Quote(etag)
}
