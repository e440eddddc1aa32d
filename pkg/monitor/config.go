package monitor

import (
	"reflect"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/pager"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/Sternrassler/uk-petitions/pkg/snapshot"
)

// Config configures a Monitor.
type Config struct {
	// InitialInterval is the fetch delay until the first traversal completes.
	InitialInterval time.Duration

	// Interval is the fetch delay afterwards.
	Interval time.Duration

	// LoadDetail stores detail records instead of list summaries.
	LoadDetail bool

	// Accept decides which petitions are stored (default StandardAccept).
	Accept pager.Predicate

	// Remove decides which petitions are dropped (default StandardRemove).
	Remove pager.Predicate

	// Transform turns raw records into petitions (default petition.Enrich).
	Transform petition.Transform
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{
		InitialInterval: 200 * time.Millisecond,
		Interval:        2 * time.Second,
		LoadDetail:      false,
		Accept:          StandardAccept,
		Remove:          StandardRemove,
		Transform:       petition.Enrich,
	}
}

// StandardAccept accepts open petitions that are new or whose signature
// count, government response or debate changed since they were stored.
func StandardAccept(candidate *petition.Petition, view snapshot.View) bool {
	if candidate.IsWithdrawn() {
		return false
	}
	current, ok := view.Get(candidate.ID)
	if !ok {
		return true
	}
	return current.SignatureCount != candidate.SignatureCount ||
		!reflect.DeepEqual(current.GovernmentResponse, candidate.GovernmentResponse) ||
		!reflect.DeepEqual(current.Debate, candidate.Debate)
}

// StandardRemove removes closed and rejected petitions.
func StandardRemove(candidate *petition.Petition, _ snapshot.View) bool {
	return candidate.IsWithdrawn()
}
