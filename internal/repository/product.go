package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/catalog-sync/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/storage/db"
)

type UpsertProductsResult struct {
	ProductsUpserted int
	ImagesUpserted   int
	ImagesReset      int
}

type ListPendingImagesParams struct {
	Limit         int32
	IncludeFailed bool
}

type MarkImageDoneParams struct {
	Sku      string
	ImageRef string
	ImageKey string
	Now      time.Time
}

type MarkImageFailedParams struct {
	Sku      string
	ImageRef string
	Reason   string
	Now      time.Time
}

type ListProductsParams struct {
	Limit  int32
	Offset int32
}

type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	// UpsertProducts writes one batch of mapped products keyed by sku and
	// replaces their image rows. It must run inside a transaction.
	UpsertProducts(ctx context.Context, products []model.Product, now time.Time) (UpsertProductsResult, error)
	ListPendingImages(ctx context.Context, params ListPendingImagesParams) ([]model.PendingImage, error)
	// MarkImageDone and MarkImageFailed only touch the product while its
	// image_ref still equals the fetched reference. They report whether a row changed.
	MarkImageDone(ctx context.Context, params MarkImageDoneParams) (bool, error)
	MarkImageFailed(ctx context.Context, params MarkImageFailedParams) (bool, error)
	GetProduct(ctx context.Context, sku string) (model.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `sku, source_record_id, name, brand, category, description, short_description,
	suggested_price, weight, pack_size, active, raw,
	image_ref, image_key, image_state, image_error, created_at, updated_at`

const imageColumns = `sku, position, filename, source_url, blob_key, width, height, variant`

func (r productRepository) UpsertProducts(ctx context.Context, products []model.Product, now time.Time) (UpsertProductsResult, error) {
	var res UpsertProductsResult
	if len(products) == 0 {
		return res, nil
	}

	skus := make([]string, 0, len(products))
	for _, p := range products {
		skus = append(skus, p.Sku)
	}

	stored, err := r.lockProducts(ctx, skus)
	if err != nil {
		return res, err
	}

	storedImages, err := r.listImages(ctx, skus)
	if err != nil {
		return res, err
	}

	batch := &pgx.Batch{}
	for _, incoming := range products {
		var prev *model.Product
		if p, ok := stored[incoming.Sku]; ok {
			prev = &p
		}

		p, reset := model.ReconcileProduct(prev, incoming, now)
		if reset {
			res.ImagesReset++
		}
		images := model.ReconcileImages(p.Sku, storedImages[p.Sku], incoming.Images)

		queueUpsertProduct(batch, p)
		batch.Queue(`DELETE FROM product_images WHERE sku = $1`, p.Sku)
		for _, img := range images {
			queueInsertImage(batch, img)
		}

		res.ProductsUpserted++
		res.ImagesUpserted += len(images)
	}

	br := r.db.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return UpsertProductsResult{}, fmt.Errorf("exec batch statement %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return UpsertProductsResult{}, fmt.Errorf("close batch: %w", err)
	}

	return res, nil
}

func queueUpsertProduct(batch *pgx.Batch, p model.Product) {
	batch.Queue(`
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (sku) DO UPDATE SET
			source_record_id  = EXCLUDED.source_record_id,
			name              = EXCLUDED.name,
			brand             = EXCLUDED.brand,
			category          = EXCLUDED.category,
			description       = EXCLUDED.description,
			short_description = EXCLUDED.short_description,
			suggested_price   = EXCLUDED.suggested_price,
			weight            = EXCLUDED.weight,
			pack_size         = EXCLUDED.pack_size,
			active            = EXCLUDED.active,
			raw               = EXCLUDED.raw,
			image_ref         = EXCLUDED.image_ref,
			image_key         = EXCLUDED.image_key,
			image_state       = EXCLUDED.image_state,
			image_error       = EXCLUDED.image_error,
			updated_at        = EXCLUDED.updated_at
	`,
		p.Sku, p.SourceRecordID, p.Name, p.Brand, p.Category, p.Description, p.ShortDescription,
		p.SuggestedPrice, p.Weight, p.PackSize, p.Active, p.Raw,
		p.ImageRef, p.ImageKey, string(p.ImageState), p.ImageError, p.CreatedAt, p.UpdatedAt,
	)
}

func queueInsertImage(batch *pgx.Batch, img model.ProductImage) {
	batch.Queue(`
		INSERT INTO product_images (`+imageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, img.Sku, img.Position, img.Filename, img.SourceURL, img.BlobKey, img.Width, img.Height, img.Variant)
}

func (r productRepository) lockProducts(ctx context.Context, skus []string) (map[string]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE sku = ANY($1)
		FOR UPDATE
	`, skus)
	if err != nil {
		return nil, fmt.Errorf("select products for update: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	out := make(map[string]model.Product, len(products))
	for _, p := range products {
		out[p.Sku] = p
	}
	return out, nil
}

func (r productRepository) listImages(ctx context.Context, skus []string) (map[string][]model.ProductImage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+imageColumns+`
		FROM product_images
		WHERE sku = ANY($1)
		ORDER BY sku, position
	`, skus)
	if err != nil {
		return nil, fmt.Errorf("select product images: %w", err)
	}

	images, err := pgx.CollectRows(rows, scanImage)
	if err != nil {
		return nil, fmt.Errorf("collect product images: %w", err)
	}

	out := make(map[string][]model.ProductImage)
	for _, img := range images {
		out[img.Sku] = append(out[img.Sku], img)
	}
	return out, nil
}

func (r productRepository) ListPendingImages(ctx context.Context, params ListPendingImagesParams) ([]model.PendingImage, error) {
	states := []string{string(model.ImageStatePending)}
	if params.IncludeFailed {
		states = append(states, string(model.ImageStateFailed))
	}

	rows, err := r.db.Query(ctx, `
		SELECT p.sku, p.image_ref, p.image_state, COALESCE(pi.filename, '')
		FROM products AS p
		LEFT JOIN LATERAL (
			SELECT filename
			FROM product_images
			WHERE sku = p.sku AND source_url = p.image_ref
			ORDER BY position
			LIMIT 1
		) AS pi ON TRUE
		WHERE p.image_state = ANY(@states)
			AND p.image_ref IS NOT NULL
			AND btrim(p.image_ref) <> ''
		ORDER BY p.sku
		LIMIT @limit
	`, pgx.NamedArgs{
		"states": states,
		"limit":  params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending images: %w", err)
	}

	pending, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PendingImage, error) {
		var p model.PendingImage
		err := row.Scan(&p.Sku, &p.ImageRef, &p.State, &p.Filename)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect pending images: %w", err)
	}

	return pending, nil
}

func (r productRepository) MarkImageDone(ctx context.Context, params MarkImageDoneParams) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET image_key   = @image_key,
			image_state = @state,
			image_error = NULL,
			updated_at  = @now
		WHERE sku = @sku AND image_ref = @image_ref
	`, pgx.NamedArgs{
		"sku":       params.Sku,
		"image_ref": params.ImageRef,
		"image_key": params.ImageKey,
		"state":     string(model.ImageStateDone),
		"now":       params.Now,
	})
	if err != nil {
		return false, fmt.Errorf("mark image done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := r.db.Exec(ctx, `
		UPDATE product_images
		SET blob_key = @image_key
		WHERE sku = @sku AND source_url = @image_ref
	`, pgx.NamedArgs{
		"sku":       params.Sku,
		"image_ref": params.ImageRef,
		"image_key": params.ImageKey,
	}); err != nil {
		return false, fmt.Errorf("set product image blob key: %w", err)
	}

	return true, nil
}

func (r productRepository) MarkImageFailed(ctx context.Context, params MarkImageFailedParams) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET image_key   = NULL,
			image_state = @state,
			image_error = @reason,
			updated_at  = @now
		WHERE sku = @sku AND image_ref = @image_ref AND image_state <> @done
	`, pgx.NamedArgs{
		"sku":       params.Sku,
		"image_ref": params.ImageRef,
		"reason":    params.Reason,
		"state":     string(model.ImageStateFailed),
		"done":      string(model.ImageStateDone),
		"now":       params.Now,
	})
	if err != nil {
		return false, fmt.Errorf("mark image failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r productRepository) GetProduct(ctx context.Context, sku string) (model.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku)
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	product, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, apperr.ProductNotFoundErr
		}
		return model.Product{}, fmt.Errorf("collect product: %w", err)
	}

	images, err := r.listImages(ctx, []string{sku})
	if err != nil {
		return model.Product{}, err
	}
	product.Images = images[sku]

	return product, nil
}

func (r productRepository) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY sku
		LIMIT @limit OFFSET @offset
	`, pgx.NamedArgs{
		"limit":  params.Limit,
		"offset": params.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.CollectableRow) (model.Product, error) {
	var (
		p   model.Product
		raw []byte
	)
	err := row.Scan(
		&p.Sku, &p.SourceRecordID, &p.Name, &p.Brand, &p.Category, &p.Description, &p.ShortDescription,
		&p.SuggestedPrice, &p.Weight, &p.PackSize, &p.Active, &raw,
		&p.ImageRef, &p.ImageKey, &p.ImageState, &p.ImageError, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Raw = raw
	return p, err
}

func scanImage(row pgx.CollectableRow) (model.ProductImage, error) {
	var img model.ProductImage
	err := row.Scan(&img.Sku, &img.Position, &img.Filename, &img.SourceURL, &img.BlobKey, &img.Width, &img.Height, &img.Variant)
	return img, err
}
