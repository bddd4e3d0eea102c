// Package harvard provides a client for the Harvard Art Museums object API.
package harvard

import (
	"time"

	"github.com/artifact-explorer/artifact-explorer/internal/errors"
)

// ErrFetchFailed is wrapped by every error that aborts a catalog fetch.
// Callers use it to tell a failed fetch apart from one that found nothing.
var ErrFetchFailed = errors.NewStd("catalog fetch failed")

// Config holds settings for the object API client.
type Config struct {
	APIKey      string
	BaseURL     string
	CacheTTL    time.Duration // successful fetches are cached this long, 0 disables
	RateLimitMS int           // minimum gap between page requests, 0 disables
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.harvardartmuseums.org",
		CacheTTL:    time.Hour,
		RateLimitMS: 200,
	}
}

// Record is one artifact as returned by the object API. Every field is
// optional: a nil pointer means the source omitted the field, sent null or
// sent a value of the wrong type.
type Record struct {
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

	ImageCount *int64
	MediaCount *int64
	ColorCount *int64
	Rank       *int64
	DateBegin  *int64
	DateEnd    *int64

	Colors []Color
}

// Color is one color swatch of an artifact.
type Color struct {
	Color    *string
	Spectrum *string
	Hue      *string
	Percent  *float64
	CSS3     *string
}

// page is one decoded response of the object endpoint.
type page struct {
	records []Record
	pages   int64 // info.pages, 0 when absent
}
