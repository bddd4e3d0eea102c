// Package splitter normalizes catalog records into the three destination row-sets.
package splitter

import (
	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
	"github.com/artifact-explorer/artifact-explorer/internal/harvard"
)

// Batch holds the row-sets derived from one fetch, in load order.
type Batch struct {
	Metadata []datastore.MetadataRow
	Media    []datastore.MediaRow
	Colors   []datastore.ColorRow
}

// Split maps each record to one metadata row, one media row and one color
// row per color entry. It does no I/O and keeps the input order. Records
// without an id pass through with a nil key; the loader rejects them.
func Split(records []harvard.Record) Batch {
	colorCount := 0
	for i := range records {
		colorCount += len(records[i].Colors)
	}

	b := Batch{
		Metadata: make([]datastore.MetadataRow, 0, len(records)),
		Media:    make([]datastore.MediaRow, 0, len(records)),
		Colors:   make([]datastore.ColorRow, 0, colorCount),
	}

	for i := range records {
		r := &records[i]

		b.Metadata = append(b.Metadata, datastore.MetadataRow{
			ID:              r.ID,
			Title:           r.Title,
			Culture:         r.Culture,
			Period:          r.Period,
			Century:         r.Century,
			Medium:          r.Medium,
			Dimensions:      r.Dimensions,
			Description:     r.Description,
			Department:      r.Department,
			Classification:  r.Classification,
			AccessionYear:   r.AccessionYear,
			AccessionMethod: r.AccessionMethod,
		})

		b.Media = append(b.Media, datastore.MediaRow{
			ObjectID:   r.ID,
			ImageCount: r.ImageCount,
			MediaCount: r.MediaCount,
			ColorCount: r.ColorCount,
			Rank:       r.Rank,
			DateBegin:  r.DateBegin,
			DateEnd:    r.DateEnd,
		})

		for _, c := range r.Colors {
			b.Colors = append(b.Colors, datastore.ColorRow{
				ObjectID: r.ID,
				Color:    c.Color,
				Spectrum: c.Spectrum,
				Hue:      c.Hue,
				Percent:  c.Percent,
				CSS3:     c.CSS3,
			})
		}
	}
	return b
}
