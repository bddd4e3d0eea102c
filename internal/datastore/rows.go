package datastore

// MetadataRow is one artifact_metadata row. Nil fields are stored as NULL.
type MetadataRow struct {
	ID              *int64
	Title           *string
	Culture         *string
	Period          *string
	Century         *string
	Medium          *string
	Dimensions      *string
	Description     *string
	Department      *string
	Classification  *string
	AccessionYear   *int64
	AccessionMethod *string
}

// Values returns the row in artifact_metadata column order.
func (r MetadataRow) Values() []any {
	return []any{
		nullable(r.ID),
		nullable(r.Title),
		nullable(r.Culture),
		nullable(r.Period),
		nullable(r.Century),
		nullable(r.Medium),
		nullable(r.Dimensions),
		nullable(r.Description),
		nullable(r.Department),
		nullable(r.Classification),
		nullable(r.AccessionYear),
		nullable(r.AccessionMethod),
	}
}

// MediaRow is one artifact_media row.
type MediaRow struct {
	ObjectID   *int64
	ImageCount *int64
	MediaCount *int64
	ColorCount *int64
	Rank       *int64
	DateBegin  *int64
	DateEnd    *int64
}

// Values returns the row in artifact_media column order.
func (r MediaRow) Values() []any {
	return []any{
		nullable(r.ObjectID),
		nullable(r.ImageCount),
		nullable(r.MediaCount),
		nullable(r.ColorCount),
		nullable(r.Rank),
		nullable(r.DateBegin),
		nullable(r.DateEnd),
	}
}

// ColorRow is one artifact_colors row.
type ColorRow struct {
	ObjectID *int64
	Color    *string
	Spectrum *string
	Hue      *string
	Percent  *float64
	CSS3     *string
}

// Values returns the row in artifact_colors column order.
func (r ColorRow) Values() []any {
	return []any{
		nullable(r.ObjectID),
		nullable(r.Color),
		nullable(r.Spectrum),
		nullable(r.Hue),
		nullable(r.Percent),
		nullable(r.CSS3),
	}
}

// Row is implemented by the typed rows above.
type Row interface {
	Values() []any
}

// RowValues flattens typed rows into the value matrix LoadBatch expects.
func RowValues[R Row](rows []R) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
