package mapping_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-sync/internal/mapping"
	"github.com/tuanvumaihuynh/catalog-sync/internal/source"
	"github.com/tuanvumaihuynh/catalog-sync/pkg/validator"
)

func record(id, fields string) source.Record {
	return source.Record{ID: id, CreatedTime: "2024-01-01T00:00:00.000Z", Fields: json.RawMessage(fields)}
}

func TestMapperMap(t *testing.T) {
	m := mapping.NewMapper(validator.MustNewDefaultValidator())

	t.Run("Should map a full english record", func(t *testing.T) {
		p, err := m.Map(record("rec1", `{
			"SKU": " ABC-1 ",
			"Name": "Hammer",
			"Brand": "Acme",
			"Category": {"id":"sel1","name":"Tools"},
			"Description": "Steel hammer",
			"Short Description": "Hammer",
			"Suggested Price": "12,50 €",
			"Weight": 0.75,
			"Pack Size": "6",
			"Active": true,
			"Image": [{"url":"https://dl.example.com/t1","filename":"hammer.jpg"}]
		}`))
		require.NoError(t, err)

		assert.Equal(t, "ABC-1", p.Sku)
		assert.Equal(t, "rec1", p.SourceRecordID)
		assert.Equal(t, "Hammer", p.Name)
		assert.Equal(t, "Acme", p.Brand)
		assert.Equal(t, "Tools", p.Category)
		assert.Equal(t, "Steel hammer", p.Description)
		assert.Equal(t, "Hammer", p.ShortDescription)
		assert.True(t, p.SuggestedPrice.Valid)
		assert.Equal(t, "12.5", p.SuggestedPrice.Decimal.String())
		assert.Equal(t, "0.75", p.Weight.Decimal.String())
		assert.Equal(t, int64(6), *p.PackSize)
		assert.True(t, p.Active)
		require.NotNil(t, p.ImageRef)
		assert.Equal(t, "https://dl.example.com/t1", *p.ImageRef)
		require.Len(t, p.Images, 1)
		assert.Equal(t, "hammer.jpg", p.Images[0].Filename)
	})

	t.Run("Should keep long free-text values and skus", func(t *testing.T) {
		name := strings.Repeat("a", 1001)
		brand := strings.Repeat("b", 600)
		sku := strings.Repeat("X", 129)

		p, err := m.Map(record("rec-long", `{"SKU":"`+sku+`","Name":"`+name+`","Brand":"`+brand+`","Image":[{"url":"https://dl.example.com/t","filename":"`+strings.Repeat("f", 600)+`.jpg"}]}`))
		require.NoError(t, err)

		assert.Equal(t, sku, p.Sku)
		assert.Equal(t, name, p.Name)
		assert.Equal(t, brand, p.Brand)
		require.Len(t, p.Images, 1)
	})

	t.Run("Should map localized field names", func(t *testing.T) {
		p, err := m.Map(record("rec2", `{
			"Artikelnummer": "DE-7",
			"Produktname": "Zange",
			"Hersteller": "Knipex",
			"UVP": "1.234,50",
			"Aktiv": "ja",
			"Bild": "zange.jpg (https://x.test/zange.jpg)"
		}`))
		require.NoError(t, err)

		assert.Equal(t, "DE-7", p.Sku)
		assert.Equal(t, "Zange", p.Name)
		assert.Equal(t, "Knipex", p.Brand)
		assert.Equal(t, "1234.5", p.SuggestedPrice.Decimal.String())
		assert.True(t, p.Active)
		assert.Equal(t, "https://x.test/zange.jpg", *p.ImageRef)
		assert.Equal(t, "zange.jpg", p.Images[0].Filename)
	})

	t.Run("Should take the first non-empty candidate", func(t *testing.T) {
		p, err := m.Map(record("rec3", `{"SKU":"S1","Name":"  ","Title":"From title","Produktname":"Ignored"}`))
		require.NoError(t, err)

		assert.Equal(t, "From title", p.Name)
	})

	t.Run("Should default missing optional fields", func(t *testing.T) {
		p, err := m.Map(record("rec4", `{"SKU":"S2","Bild":"see shared drive"}`))
		require.NoError(t, err)

		assert.False(t, p.Active)
		assert.False(t, p.SuggestedPrice.Valid)
		assert.Nil(t, p.PackSize)
		assert.Nil(t, p.ImageRef)
		assert.Empty(t, p.Images)
	})

	t.Run("Should keep the raw record", func(t *testing.T) {
		p, err := m.Map(record("rec5", `{"SKU":"S3","Extra":"kept"}`))
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(p.Raw, &raw))
		assert.Equal(t, "rec5", raw["id"])
		assert.Equal(t, "2024-01-01T00:00:00.000Z", raw["createdTime"])
		assert.Equal(t, "kept", raw["fields"].(map[string]any)["Extra"])
	})

	t.Run("Should reject records without sku", func(t *testing.T) {
		_, err := m.Map(record("rec6", `{"Name":"No sku"}`))
		assert.ErrorIs(t, err, mapping.ErrMissingSku)

		_, err = m.Map(record("rec7", `{"SKU":"   "}`))
		assert.ErrorIs(t, err, mapping.ErrMissingSku)

		_, err = m.Map(source.Record{ID: "rec8"})
		assert.ErrorIs(t, err, mapping.ErrMissingSku)
	})

	t.Run("Should reject records failing validation", func(t *testing.T) {
		_, err := m.Map(record("rec9", `{"SKU":"AB\u0007C"}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, mapping.ErrMissingSku)
	})
}
