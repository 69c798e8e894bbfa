package mapping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestDecimalValue(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOk bool
	}{
		{in: `12.5`, want: "12.5", wantOk: true},
		{in: `"12,50 €"`, want: "12.5", wantOk: true},
		{in: `"1.234,50"`, want: "1234.5", wantOk: true},
		{in: `"1,234.50"`, want: "1234.5", wantOk: true},
		{in: `"1.234.567"`, want: "1234567", wantOk: true},
		{in: `"1,234,567"`, want: "1234567", wantOk: true},
		{in: `"$ 19.99"`, want: "19.99", wantOk: true},
		{in: `"0.5 kg"`, want: "0.5", wantOk: true},
		{in: `"-3,5"`, want: "-3.5", wantOk: true},
		{in: `["7"]`, want: "7", wantOk: true},
		{in: `"n/a"`, wantOk: false},
		{in: `""`, wantOk: false},
		{in: `true`, wantOk: false},
		{in: `null`, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := decimalValue(gjson.Parse(tt.in))

			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestIntegerValue(t *testing.T) {
	n, ok := integerValue(gjson.Parse(`"6 Stück"`))
	assert.True(t, ok)
	assert.Equal(t, int64(6), n)

	n, ok = integerValue(gjson.Parse(`12`))
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	_, ok = integerValue(gjson.Parse(`"2,5"`))
	assert.False(t, ok)
}

func TestBoolValue(t *testing.T) {
	tests := []struct {
		in     string
		want   bool
		wantOk bool
	}{
		{in: `true`, want: true, wantOk: true},
		{in: `false`, want: false, wantOk: true},
		{in: `1`, want: true, wantOk: true},
		{in: `0`, want: false, wantOk: true},
		{in: `"Yes"`, want: true, wantOk: true},
		{in: `"JA"`, want: true, wantOk: true},
		{in: `"Oui"`, want: true, wantOk: true},
		{in: `"Sí"`, want: true, wantOk: true},
		{in: `"x"`, want: true, wantOk: true},
		{in: `"✓"`, want: true, wantOk: true},
		{in: `"nein"`, want: false, wantOk: true},
		{in: `"Non"`, want: false, wantOk: true},
		{in: `" no "`, want: false, wantOk: true},
		{in: `"maybe"`, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := boolValue(gjson.Parse(tt.in))

			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextValue(t *testing.T) {
	assert.Equal(t, "Acme", textValue(gjson.Parse(`"  Acme "`)))
	assert.Equal(t, "42", textValue(gjson.Parse(`42`)))
	assert.Equal(t, "Red, Blue", textValue(gjson.Parse(`["Red", "", "Blue"]`)))
	assert.Equal(t, "Tools", textValue(gjson.Parse(`{"id":"sel1","name":"Tools"}`)))
	assert.Equal(t, "", textValue(gjson.Parse(`{"id":"sel1"}`)))
	assert.Equal(t, "", textValue(gjson.Result{}))
}

func TestExtractImages(t *testing.T) {
	t.Run("Should read attachment arrays", func(t *testing.T) {
		images := extractImages(gjson.Parse(`[
			{"id":"att1","url":"https://dl.example.com/a/token1","filename":"front.jpg","width":800,"height":600},
			{"id":"att2","url":"https://dl.example.com/a/token2","filename":"back.jpg"}
		]`))

		assert.Len(t, images, 2)
		assert.Equal(t, "https://dl.example.com/a/token1", images[0].SourceURL)
		assert.Equal(t, "front.jpg", images[0].Filename)
		assert.Equal(t, 800, *images[0].Width)
		assert.Equal(t, 600, *images[0].Height)
		assert.Nil(t, images[1].Width)
	})

	t.Run("Should parse filename and url pairs from text", func(t *testing.T) {
		images := extractImages(gjson.Parse(`"front.jpg (https://x.test/front.jpg), back view.png (http://x.test/b.png)"`))

		assert.Len(t, images, 2)
		assert.Equal(t, "front.jpg", images[0].Filename)
		assert.Equal(t, "https://x.test/front.jpg", images[0].SourceURL)
		assert.Equal(t, "back view.png", images[1].Filename)
		assert.Equal(t, "http://x.test/b.png", images[1].SourceURL)
	})

	t.Run("Should accept a bare url", func(t *testing.T) {
		images := extractImages(gjson.Parse(`"http://x/old.jpg"`))

		assert.Len(t, images, 1)
		assert.Equal(t, "http://x/old.jpg", images[0].SourceURL)
	})

	t.Run("Should ignore unparsable values", func(t *testing.T) {
		assert.Empty(t, extractImages(gjson.Parse(`"see shared drive"`)))
		assert.Empty(t, extractImages(gjson.Parse(`"ftp://x/a.jpg"`)))
		assert.Empty(t, extractImages(gjson.Parse(`[{"filename":"no-url.jpg"}]`)))
		assert.Empty(t, extractImages(gjson.Parse(`12`)))
	})
}
