package mapping

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
	"github.com/tuanvumaihuynh/catalog-sync/internal/source"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/validator"
)

// ErrMissingSku is returned for records without a usable sku. Such records
// are never written.
var ErrMissingSku = errors.New("record has no sku")

// Mapper turns source records into products through the Columns table.
type Mapper struct {
	columns   []Column
	validator validator.Validator
}

func NewMapper(v validator.Validator) *Mapper {
	return &Mapper{
		columns:   Columns,
		validator: v,
	}
}

type rawRecord struct {
	ID          string          `json:"id"`
	CreatedTime string          `json:"createdTime,omitempty"`
	Fields      json.RawMessage `json:"fields"`
}

// Map converts one record. It returns ErrMissingSku or a validation error for
// records that must be skipped.
func (m *Mapper) Map(rec source.Record) (model.Product, error) {
	fields := map[string]gjson.Result{}
	if len(rec.Fields) > 0 {
		if !gjson.ValidBytes(rec.Fields) {
			return model.Product{}, fmt.Errorf("record %s: fields are not valid JSON", rec.ID)
		}
		fields = gjson.ParseBytes(rec.Fields).Map()
	}

	p := model.Product{SourceRecordID: rec.ID}
	for _, col := range m.columns {
		m.apply(&p, col, fields)
	}

	if p.Sku == "" {
		return model.Product{}, ErrMissingSku
	}

	fieldsRaw := rec.Fields
	if len(fieldsRaw) == 0 {
		fieldsRaw = json.RawMessage(`{}`)
	}
	raw, err := json.Marshal(rawRecord{ID: rec.ID, CreatedTime: rec.CreatedTime, Fields: fieldsRaw})
	if err != nil {
		return model.Product{}, fmt.Errorf("marshal raw record: %w", err)
	}
	p.Raw = raw

	if err := m.validator.Validate(p); err != nil {
		return model.Product{}, fmt.Errorf("validate product %q: %w", p.Sku, err)
	}

	return p, nil
}

func (m *Mapper) apply(p *model.Product, col Column, fields map[string]gjson.Result) {
	switch col.Kind {
	case KindText:
		if s, ok := firstText(col, fields); ok {
			setText(p, col.Name, s)
		}
	case KindDecimal:
		if d, ok := firstDecimal(col, fields); ok {
			setDecimal(p, col.Name, d)
		}
	case KindInteger:
		for _, name := range col.Candidates {
			if n, ok := integerValue(fields[name]); ok {
				if col.Name == ColumnPackSize {
					p.PackSize = &n
				}
				return
			}
		}
	case KindBool:
		for _, name := range col.Candidates {
			r, found := fields[name]
			if !found {
				continue
			}
			if b, ok := boolValue(r); ok {
				if col.Name == ColumnActive {
					p.Active = b
				}
				return
			}
		}
	case KindImage:
		for _, name := range col.Candidates {
			images := extractImages(fields[name])
			if len(images) == 0 {
				continue
			}
			ref := images[0].SourceURL
			p.ImageRef = &ref
			p.Images = images
			return
		}
	}
}

func firstText(col Column, fields map[string]gjson.Result) (string, bool) {
	for _, name := range col.Candidates {
		if s := textValue(fields[name]); s != "" {
			return s, true
		}
	}
	return "", false
}

func firstDecimal(col Column, fields map[string]gjson.Result) (decimal.Decimal, bool) {
	for _, name := range col.Candidates {
		if d, ok := decimalValue(fields[name]); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}

func setText(p *model.Product, column, s string) {
	switch column {
	case ColumnSku:
		p.Sku = s
	case ColumnName:
		p.Name = s
	case ColumnBrand:
		p.Brand = s
	case ColumnCategory:
		p.Category = s
	case ColumnDescription:
		p.Description = s
	case ColumnShortDescription:
		p.ShortDescription = s
	}
}

func setDecimal(p *model.Product, column string, d decimal.Decimal) {
	v := decimal.NullDecimal{Decimal: d, Valid: true}
	switch column {
	case ColumnSuggestedPrice:
		p.SuggestedPrice = v
	case ColumnWeight:
		p.Weight = v
	}
}
