package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ImageState is the materialization state of a product's primary image.
type ImageState string

const (
	ImageStatePending ImageState = "pending"
	ImageStateDone    ImageState = "done"
	ImageStateFailed  ImageState = "failed"
)

func (s ImageState) Validate() error {
	switch s {
	case ImageStatePending, ImageStateDone, ImageStateFailed:
		return nil
	default:
		return fmt.Errorf("invalid image state: %q", string(s))
	}
}

// Product is one catalog row keyed by the external sku.
type Product struct {
	Sku              string              `json:"sku" validate:"required,sku"`
	SourceRecordID   string              `json:"source_record_id,omitempty"`
	Name             string              `json:"name,omitempty"`
	Brand            string              `json:"brand,omitempty"`
	Category         string              `json:"category,omitempty"`
	Description      string              `json:"description,omitempty"`
	ShortDescription string              `json:"short_description,omitempty"`
	SuggestedPrice   decimal.NullDecimal `json:"suggested_price"`
	Weight           decimal.NullDecimal `json:"weight"`
	PackSize         *int64              `json:"pack_size,omitempty"`
	Active           bool                `json:"active"`
	Raw              json.RawMessage     `json:"raw,omitempty"`

	ImageRef   *string        `json:"image_ref,omitempty"`
	ImageKey   *string        `json:"image_key,omitempty"`
	ImageState ImageState     `json:"image_state,omitempty" validate:"omitempty,enum"`
	ImageError *string        `json:"image_error,omitempty"`
	Images     []ProductImage `json:"images,omitempty" validate:"dive"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReconcileProduct merges a freshly mapped product into the stored row.
//
// Every mapped column comes from incoming. The image key, state and error are
// kept from stored unless the image reference changed, in which case the image
// goes back to pending with no key. The second return value reports that reset.
func ReconcileProduct(stored *Product, incoming Product, now time.Time) (Product, bool) {
	out := incoming
	out.UpdatedAt = now

	if stored == nil {
		out.CreatedAt = now
		out.ImageState = ImageStatePending
		out.ImageKey = nil
		out.ImageError = nil
		return out, false
	}

	out.CreatedAt = stored.CreatedAt
	if sameRef(stored.ImageRef, incoming.ImageRef) {
		out.ImageState = stored.ImageState
		out.ImageKey = stored.ImageKey
		out.ImageError = stored.ImageError
		return out, false
	}

	out.ImageState = ImageStatePending
	out.ImageKey = nil
	out.ImageError = nil
	return out, true
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
