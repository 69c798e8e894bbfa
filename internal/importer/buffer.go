package importer

import "github.com/tuanvumaihuynh/catalog-sync/internal/model"

// buffer collects mapped products for one write batch. A sku seen twice keeps
// its position and takes the later record.
type buffer struct {
	size     int
	products []model.Product
	index    map[string]int
}

func newBuffer(size int) *buffer {
	return &buffer{
		size:  size,
		index: make(map[string]int, size),
	}
}

// add reports whether the buffer is full.
func (b *buffer) add(p model.Product) bool {
	if i, ok := b.index[p.Sku]; ok {
		b.products[i] = p
		return false
	}
	b.index[p.Sku] = len(b.products)
	b.products = append(b.products, p)
	return len(b.products) >= b.size
}

func (b *buffer) take() []model.Product {
	out := b.products
	b.products = nil
	clear(b.index)
	return out
}
