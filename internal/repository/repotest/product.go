package repotest

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/catalog-sync/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/repository"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository keeps products in memory and applies the same reconcile
// rules as the SQL implementation. A batch is applied only when UpsertHook
// returns nil, which mirrors a rolled back transaction.
type ProductRepository struct {
	mu       sync.Mutex
	products map[string]model.Product
	images   map[string][]model.ProductImage
	upserts  int

	// UpsertHook is called with the 1-based call number before a batch is applied.
	UpsertHook func(call int, products []model.Product) error
	// MarkHook is called before MarkImageDone and MarkImageFailed.
	MarkHook func(sku string) error
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: map[string]model.Product{},
		images:   map[string][]model.ProductImage{},
	}
}

func (r *ProductRepository) WithDB(db.DB) repository.ProductRepository {
	return r
}

// Seed stores p as is, bypassing reconciliation.
func (r *ProductRepository) Seed(p model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.Sku] = p
	r.images[p.Sku] = slices.Clone(p.Images)
}

// Product returns the stored product with its images.
func (r *ProductRepository) Product(sku string) (model.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[sku]
	if !ok {
		return model.Product{}, false
	}
	p.Images = slices.Clone(r.images[sku])
	return p, true
}

func (r *ProductRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.products)
}

func (r *ProductRepository) UpsertProducts(_ context.Context, products []model.Product, now time.Time) (repository.UpsertProductsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.upserts++
	if r.UpsertHook != nil {
		if err := r.UpsertHook(r.upserts, products); err != nil {
			return repository.UpsertProductsResult{}, err
		}
	}

	var res repository.UpsertProductsResult
	for _, incoming := range products {
		var prev *model.Product
		if p, ok := r.products[incoming.Sku]; ok {
			prev = &p
		}

		p, reset := model.ReconcileProduct(prev, incoming, now)
		if reset {
			res.ImagesReset++
		}
		images := model.ReconcileImages(p.Sku, r.images[p.Sku], incoming.Images)
		p.Images = nil

		r.products[p.Sku] = p
		r.images[p.Sku] = images
		res.ProductsUpserted++
		res.ImagesUpserted += len(images)
	}

	return res, nil
}

func (r *ProductRepository) ListPendingImages(_ context.Context, params repository.ListPendingImagesParams) ([]model.PendingImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.PendingImage
	for _, p := range r.products {
		eligible := p.ImageState == model.ImageStatePending ||
			(params.IncludeFailed && p.ImageState == model.ImageStateFailed)
		if !eligible || p.ImageRef == nil || strings.TrimSpace(*p.ImageRef) == "" {
			continue
		}

		item := model.PendingImage{Sku: p.Sku, ImageRef: *p.ImageRef, State: p.ImageState}
		for _, img := range r.images[p.Sku] {
			if img.SourceURL == *p.ImageRef {
				item.Filename = img.Filename
				break
			}
		}
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Sku < out[j].Sku })
	if params.Limit >= 0 && len(out) > int(params.Limit) {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *ProductRepository) MarkImageDone(_ context.Context, params repository.MarkImageDoneParams) (bool, error) {
	if r.MarkHook != nil {
		if err := r.MarkHook(params.Sku); err != nil {
			return false, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[params.Sku]
	if !ok || p.ImageRef == nil || *p.ImageRef != params.ImageRef {
		return false, nil
	}

	key := params.ImageKey
	p.ImageKey = &key
	p.ImageState = model.ImageStateDone
	p.ImageError = nil
	p.UpdatedAt = params.Now
	r.products[p.Sku] = p

	for i, img := range r.images[p.Sku] {
		if img.SourceURL == params.ImageRef {
			k := key
			r.images[p.Sku][i].BlobKey = &k
		}
	}

	return true, nil
}

func (r *ProductRepository) MarkImageFailed(_ context.Context, params repository.MarkImageFailedParams) (bool, error) {
	if r.MarkHook != nil {
		if err := r.MarkHook(params.Sku); err != nil {
			return false, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[params.Sku]
	if !ok || p.ImageRef == nil || *p.ImageRef != params.ImageRef || p.ImageState == model.ImageStateDone {
		return false, nil
	}

	reason := params.Reason
	p.ImageKey = nil
	p.ImageState = model.ImageStateFailed
	p.ImageError = &reason
	p.UpdatedAt = params.Now
	r.products[p.Sku] = p

	return true, nil
}

func (r *ProductRepository) GetProduct(_ context.Context, sku string) (model.Product, error) {
	p, ok := r.Product(sku)
	if !ok {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	return p, nil
}

func (r *ProductRepository) ListProducts(_ context.Context, params repository.ListProductsParams) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	skus := make([]string, 0, len(r.products))
	for sku := range r.products {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	start := min(int(params.Offset), len(skus))
	end := min(start+int(params.Limit), len(skus))

	out := make([]model.Product, 0, end-start)
	for _, sku := range skus[start:end] {
		out = append(out, r.products[sku])
	}
	return out, nil
}
