// Package queries holds predicates over petitions and delta checks between
// two snapshots of the same petition.
//
// Predicates look at one record:
//
//	queries.ReachedResponseThreshold(p) // p.SignatureCount >= 10000
//
// Delta checks look at the latest and the previous record of one petition
// and report whether the predicate has just become true:
//
//	queries.DeltaReachedResponseThreshold(cur, old)
//
// Calling a delta check with records of two different petitions is a
// programming error and panics with an error wrapping ErrDifferentPetitions.
package queries

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/uk-petitions/pkg/petition"
)

const (
	// ResponseThreshold is the signature count at which the government responds.
	ResponseThreshold = 10000

	// DebateThreshold is the signature count at which a debate is considered.
	DebateThreshold = 100000
)

// SignatureMilestones are the signature counts with named predicates.
var SignatureMilestones = []int{10, 20, 50, 100, 250, 500, 1000, 5000, 10000, 50000, 100000, 500000}

// ErrDifferentPetitions is the panic value of a delta check given two
// different petitions.
var ErrDifferentPetitions = errors.New("petition ids should be the same but are different")

// Predicate tests a single petition.
type Predicate func(p *petition.Petition) bool

// Check compares the latest record of a petition with an older one.
type Check func(cur, old *petition.Petition) bool

// ReachedSignatureCount returns a predicate that holds once a petition has at
// least n signatures.
func ReachedSignatureCount(n int) Predicate {
	return func(p *petition.Petition) bool {
		return p != nil && p.SignatureCount >= n
	}
}

var (
	Reached10     = ReachedSignatureCount(10)
	Reached20     = ReachedSignatureCount(20)
	Reached50     = ReachedSignatureCount(50)
	Reached100    = ReachedSignatureCount(100)
	Reached250    = ReachedSignatureCount(250)
	Reached500    = ReachedSignatureCount(500)
	Reached1000   = ReachedSignatureCount(1000)
	Reached5000   = ReachedSignatureCount(5000)
	Reached10000  = ReachedSignatureCount(10000)
	Reached50000  = ReachedSignatureCount(50000)
	Reached100000 = ReachedSignatureCount(100000)
	Reached500000 = ReachedSignatureCount(500000)

	// ReachedResponseThreshold holds once a response is due.
	ReachedResponseThreshold = ReachedSignatureCount(ResponseThreshold)

	// ReachedDebateThreshold holds once a debate is due.
	ReachedDebateThreshold = ReachedSignatureCount(DebateThreshold)
)

// GovernmentResponded holds when the petition carries a government response.
func GovernmentResponded(p *petition.Petition) bool {
	return p != nil && p.GovernmentResponse != nil
}

// Debated holds when the petition carries a debate.
func Debated(p *petition.Petition) bool {
	return p != nil && p.Debate != nil
}

// DebateTranscriptAvailable holds when the petition's debate has a transcript.
func DebateTranscriptAvailable(p *petition.Petition) bool {
	return Debated(p) && p.Debate.TranscriptURL != ""
}

// DebateScheduled holds when the petition has a valid scheduled debate date.
// Enrich rejects unparsable dates, so any date present is valid.
func DebateScheduled(p *petition.Petition) bool {
	return p != nil && p.ScheduledDebateDate != nil
}

// SamePetition reports whether two records describe the same petition.
func SamePetition(a, b *petition.Petition) bool {
	return a != nil && b != nil && a.ID == b.ID
}

func mustBeSame(cur, old *petition.Petition) {
	if SamePetition(cur, old) {
		return
	}
	panic(fmt.Errorf("%w: %s and %s", ErrDifferentPetitions, describe(cur), describe(old)))
}

func describe(p *petition.Petition) string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("petition %d", p.ID)
}

// Delta turns a predicate into a check that holds when the predicate is true
// for cur and false for old.
func Delta(pred Predicate) Check {
	return func(cur, old *petition.Petition) bool {
		mustBeSame(cur, old)
		return pred(cur) && !pred(old)
	}
}

// DeltaReachedSignatureCount returns a check that holds when a petition has
// just reached n signatures.
func DeltaReachedSignatureCount(n int) Check {
	return Delta(ReachedSignatureCount(n))
}

var (
	DeltaReached10     = DeltaReachedSignatureCount(10)
	DeltaReached20     = DeltaReachedSignatureCount(20)
	DeltaReached50     = DeltaReachedSignatureCount(50)
	DeltaReached100    = DeltaReachedSignatureCount(100)
	DeltaReached250    = DeltaReachedSignatureCount(250)
	DeltaReached500    = DeltaReachedSignatureCount(500)
	DeltaReached1000   = DeltaReachedSignatureCount(1000)
	DeltaReached5000   = DeltaReachedSignatureCount(5000)
	DeltaReached10000  = DeltaReachedSignatureCount(10000)
	DeltaReached50000  = DeltaReachedSignatureCount(50000)
	DeltaReached100000 = DeltaReachedSignatureCount(100000)
	DeltaReached500000 = DeltaReachedSignatureCount(500000)

	DeltaReachedResponseThreshold  = Delta(ReachedResponseThreshold)
	DeltaReachedDebateThreshold    = Delta(ReachedDebateThreshold)
	DeltaGovernmentResponded       = Delta(GovernmentResponded)
	DeltaDebated                   = Delta(Debated)
	DeltaDebateTranscriptAvailable = Delta(DebateTranscriptAvailable)
	DeltaDebateScheduled           = Delta(DebateScheduled)
)

// DeltaDebateRescheduled holds when both records have a scheduled debate and
// the dates differ.
func DeltaDebateRescheduled(cur, old *petition.Petition) bool {
	mustBeSame(cur, old)
	return DebateScheduled(cur) && DebateScheduled(old) &&
		!cur.ScheduledDebateDate.Equal(*old.ScheduledDebateDate)
}
