package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tuanvumaihuynh/catalog-sync/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/service"
)

type productHandler struct {
	*Service
	productSvc service.ProductService
}

func newProductHandler(s *Service, productSvc service.ProductService) *productHandler {
	return &productHandler{
		Service:    s,
		productSvc: productSvc,
	}
}

type listProductsResponse struct {
	Items  []model.Product `json:"items"`
	Limit  int32           `json:"limit"`
	Offset int32           `json:"offset"`
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		params listProductsParams
		err    error
	)
	if params.Limit, err = queryInt32(r, "limit", defaultPageLimit); err != nil {
		h.handleRequestError(w, r, err)
		return
	}
	if params.Offset, err = queryInt32(r, "offset", 0); err != nil {
		h.handleRequestError(w, r, err)
		return
	}
	if err := h.validator.Validate(params); err != nil {
		h.handleRequestError(w, r, err)
		return
	}

	products, err := h.productSvc.ListProducts(r.Context(), service.ListProductsParams{
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		h.handleResponseError(w, r, fmt.Errorf("product service list products: %w", err))
		return
	}

	if products == nil {
		products = []model.Product{}
	}

	h.writeJSON(w, r, http.StatusOK, listProductsResponse{
		Items:  products,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	sku := strings.TrimSpace(chi.URLParam(r, "sku"))
	if sku == "" {
		h.handleResponseError(w, r, apperr.ProductNotFoundErr)
		return
	}

	product, err := h.productSvc.GetProduct(r.Context(), sku)
	if err != nil {
		h.handleResponseError(w, r, fmt.Errorf("product service get product: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, product)
}
