package pager

import (
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/petition"
)

// Config configures a Pager.
type Config struct {
	// Name labels the pager's snapshot metrics.
	Name string

	// LoadInterval is the delay before each page or detail fetch starts.
	LoadInterval time.Duration

	// LoadDetail fetches every accepted or removed petition's detail record
	// and stores that instead of the list summary.
	LoadDetail bool

	// Transform turns raw records into the stored shape (default petition.Enrich).
	Transform petition.Transform

	// FirstPagePath starts a full traversal.
	FirstPagePath string
}

// DefaultConfig returns the default pager configuration.
func DefaultConfig() Config {
	return Config{
		Name:          "pager",
		LoadInterval:  500 * time.Millisecond,
		LoadDetail:    false,
		Transform:     petition.Enrich,
		FirstPagePath: "/petitions.json?page=1&state=all",
	}
}
