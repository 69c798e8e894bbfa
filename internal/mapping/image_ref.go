package mapping

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tuanvumaihuynh/catalog-sync/internal/model"
)

// namedURLPattern matches "front.jpg (https://cdn.example.com/front.jpg)"
// entries as exported by spreadsheet attachment columns turned into text.
var namedURLPattern = regexp.MustCompile(`([^,\n()]+?)\s*\((https?://[^\s()]+)\)`)

// extractImages returns the images referenced by a source value. Unknown
// shapes yield nil rather than an error.
func extractImages(r gjson.Result) []model.ProductImage {
	switch {
	case r.IsArray():
		var out []model.ProductImage
		for _, el := range r.Array() {
			out = append(out, extractImages(el)...)
		}
		return out
	case r.IsObject():
		if img, ok := attachment(r); ok {
			return []model.ProductImage{img}
		}
		return nil
	case r.Type == gjson.String:
		return parseImageText(r.Str)
	default:
		return nil
	}
}

func attachment(r gjson.Result) (model.ProductImage, bool) {
	u := strings.TrimSpace(r.Get("url").String())
	if !isAbsoluteHTTP(u) {
		return model.ProductImage{}, false
	}

	img := model.ProductImage{
		SourceURL: u,
		Filename:  strings.TrimSpace(r.Get("filename").String()),
	}
	if w := r.Get("width"); w.Type == gjson.Number {
		v := int(w.Int())
		img.Width = &v
	}
	if h := r.Get("height"); h.Type == gjson.Number {
		v := int(h.Int())
		img.Height = &v
	}
	return img, true
}

func parseImageText(s string) []model.ProductImage {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	matches := namedURLPattern.FindAllStringSubmatch(s, -1)
	if len(matches) > 0 {
		out := make([]model.ProductImage, 0, len(matches))
		for _, m := range matches {
			out = append(out, model.ProductImage{
				Filename:  strings.TrimSpace(m[1]),
				SourceURL: m[2],
			})
		}
		return out
	}

	if isAbsoluteHTTP(s) {
		return []model.ProductImage{{SourceURL: s}}
	}
	return nil
}

func isAbsoluteHTTP(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
