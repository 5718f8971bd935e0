// Package extract resolves Terabox share links into direct download links
// by querying a fixed, ordered list of third-party mirror endpoints.
package extract

import (
	"context"
	"errors"

	"teralink/internal/media"
)

// Resolution failures surfaced to callers. Per-endpoint failures never are;
// they only cause the next endpoint to be tried.
var (
	ErrNoEndpointAvailable = errors.New("no working API endpoints found")
	ErrNoValidLinks        = errors.New("no valid download links found")
)

// Extractor resolves share links into direct download links.
type Extractor interface {
	Resolve(ctx context.Context, shareURL string, quality string) (*media.Result, error)
}
