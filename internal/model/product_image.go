package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// ProductImage is one image of a product as listed by the source.
// BlobKey is set once the bytes live in the blob store.
type ProductImage struct {
	Sku       string  `json:"sku"`
	Position  int     `json:"position"`
	Filename  string  `json:"filename,omitempty"`
	SourceURL string  `json:"source_url" validate:"required"`
	BlobKey   *string `json:"blob_key,omitempty"`
	Width     *int    `json:"width,omitempty"`
	Height    *int    `json:"height,omitempty"`
	Variant   *string `json:"variant,omitempty"`
}

// ReconcileImages prepares the replacement image rows for sku. A blob key
// already materialized for the same source URL is carried over.
func ReconcileImages(sku string, stored, incoming []ProductImage) []ProductImage {
	keys := make(map[string]*string, len(stored))
	for _, img := range stored {
		if img.BlobKey != nil {
			keys[img.SourceURL] = img.BlobKey
		}
	}

	out := make([]ProductImage, 0, len(incoming))
	for i, img := range incoming {
		img.Sku = sku
		img.Position = i
		if img.BlobKey == nil {
			img.BlobKey = keys[img.SourceURL]
		}
		out = append(out, img)
	}
	return out
}

// PendingImage is a product whose primary image still has to be fetched.
type PendingImage struct {
	Sku      string
	ImageRef string
	Filename string
	State    ImageState
}

// BlobKey derives the deterministic blob key for a product image:
// the escaped sku, then a short digest of the reference and the file name.
// The file name comes from the source attachment when known, otherwise from
// the last URL path segment. A replaced image gets a new key even when the
// source keeps its file name.
func BlobKey(sku, filename, ref string) string {
	name := strings.TrimSpace(filename)
	if name == "" {
		if u, err := url.Parse(ref); err == nil {
			name = path.Base(u.Path)
		}
	}
	name = sanitizeFilename(name)
	if name == "" {
		name = "image"
	}
	return url.PathEscape(sku) + "/" + refDigest(ref) + "-" + name
}

func refDigest(ref string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(ref)))
	return hex.EncodeToString(sum[:])[:12]
}

func sanitizeFilename(name string) string {
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), ".")
}
