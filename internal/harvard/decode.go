package harvard

import (
	"math"

	"github.com/antonholmquist/jason"

	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
)

// decodePage parses an object endpoint response. Only a body that is not a
// JSON object is an error; a missing records array is an empty page and
// individual fields that are absent, null or mistyped are left nil.
func decodePage(body []byte) (page, error) {
	root, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return page{}, errors.New(err).
			Component("harvard").
			Category(errors.CategoryFileParsing).
			Context("body_size", len(body)).
			Build()
	}

	var p page
	if pages, err := root.GetInt64("info", "pages"); err == nil {
		p.pages = pages
	}

	values, err := root.GetValueArray("records")
	if err != nil {
		return p, nil
	}

	p.records = make([]Record, 0, len(values))
	for i, v := range values {
		obj, err := v.Object()
		if err != nil {
			getLogger().Debug("skipping non-object record", logger.Int("index", i))
			continue
		}
		p.records = append(p.records, decodeRecord(obj))
	}
	return p, nil
}

func decodeRecord(obj *jason.Object) Record {
	r := Record{
		ID:              optInt(obj, "id"),
		Title:           optString(obj, "title"),
		Culture:         optString(obj, "culture"),
		Period:          optString(obj, "period"),
		Century:         optString(obj, "century"),
		Medium:          optString(obj, "medium"),
		Dimensions:      optString(obj, "dimensions"),
		Description:     optString(obj, "description"),
		Department:      optString(obj, "department"),
		Classification:  optString(obj, "classification"),
		AccessionYear:   optInt(obj, "accessionyear"),
		AccessionMethod: optString(obj, "accessionmethod"),
		ImageCount:      optInt(obj, "imagecount"),
		MediaCount:      optInt(obj, "mediacount"),
		ColorCount:      optInt(obj, "colorcount"),
		Rank:            optInt(obj, "rank"),
		DateBegin:       optInt(obj, "datebegin"),
		DateEnd:         optInt(obj, "dateend"),
	}

	colors, err := obj.GetValueArray("colors")
	if err != nil {
		return r
	}
	for _, v := range colors {
		c, err := v.Object()
		if err != nil {
			continue
		}
		r.Colors = append(r.Colors, Color{
			Color:    optString(c, "color"),
			Spectrum: optString(c, "spectrum"),
			Hue:      optString(c, "hue"),
			Percent:  optFloat(c, "percent"),
			CSS3:     optString(c, "css3"),
		})
	}
	return r
}

func optString(obj *jason.Object, key string) *string {
	s, err := obj.GetString(key)
	if err != nil {
		return nil
	}
	return &s
}

// optInt also accepts integral floats such as 12.0.
func optInt(obj *jason.Object, key string) *int64 {
	if n, err := obj.GetInt64(key); err == nil {
		return &n
	}
	f, err := obj.GetFloat64(key)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

func optFloat(obj *jason.Object, key string) *float64 {
	f, err := obj.GetFloat64(key)
	if err != nil {
		return nil
	}
	return &f
}
