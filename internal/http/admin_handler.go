package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
)

type adminHandler struct {
	*Service
	deps Deps
}

func newAdminHandler(s *Service, deps Deps) *adminHandler {
	return &adminHandler{
		Service: s,
		deps:    deps,
	}
}

// RunImport runs the importer synchronously. A finished run is always 200;
// its status field tells success from failure.
func (h *adminHandler) RunImport(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Importer.Run(r.Context(), h.deps.Source)
	if err != nil {
		h.handleResponseError(w, r, fmt.Errorf("importer run: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, res)
}

// RunImageBatch runs one image fetch batch. limit=0 or absent uses the configured batch size.
func (h *adminHandler) RunImageBatch(w http.ResponseWriter, r *http.Request) {
	var (
		params imageBatchParams
		err    error
	)
	if params.Limit, err = queryInt32(r, "limit", 0); err != nil {
		h.handleRequestError(w, r, err)
		return
	}
	if err := h.validator.Validate(params); err != nil {
		h.handleRequestError(w, r, err)
		return
	}

	res := h.deps.Images.RunBatch(r.Context(), int(params.Limit))

	h.writeJSON(w, r, http.StatusOK, res)
}

type listSyncRunsResponse struct {
	Items []model.SyncRun `json:"items"`
}

func (h *adminHandler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	var (
		params listSyncRunsParams
		err    error
	)
	if params.Limit, err = queryInt32(r, "limit", defaultRunsLimit); err != nil {
		h.handleRequestError(w, r, err)
		return
	}
	params.Kind = r.URL.Query().Get("kind")
	if err := h.validator.Validate(params); err != nil {
		h.handleRequestError(w, r, err)
		return
	}

	var kind *model.SyncRunKind
	if params.Kind != "" {
		k := model.SyncRunKind(params.Kind)
		kind = &k
	}

	runs, err := h.deps.SyncRunSvc.ListRuns(r.Context(), kind, params.Limit)
	if err != nil {
		h.handleResponseError(w, r, fmt.Errorf("sync run service list runs: %w", err))
		return
	}

	if runs == nil {
		runs = []model.SyncRun{}
	}

	h.writeJSON(w, r, http.StatusOK, listSyncRunsResponse{Items: runs})
}
