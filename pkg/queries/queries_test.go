package queries

import (
	"testing"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSignatures(id petition.ID, n int) *petition.Petition {
	return &petition.Petition{ID: id, SignatureCount: n}
}

func TestReachedSignatureCount_Boundary(t *testing.T) {
	for _, n := range SignatureMilestones {
		pred := ReachedSignatureCount(n)
		assert.False(t, pred(withSignatures(1, n-1)), "n-1 for %d", n)
		assert.True(t, pred(withSignatures(1, n)), "n for %d", n)
		assert.True(t, pred(withSignatures(1, n+1)), "n+1 for %d", n)
	}
	assert.False(t, ReachedSignatureCount(10)(nil))
}

func TestNamedMilestones(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		n    int
	}{
		{"10", Reached10, 10},
		{"20", Reached20, 20},
		{"50", Reached50, 50},
		{"100", Reached100, 100},
		{"250", Reached250, 250},
		{"500", Reached500, 500},
		{"1000", Reached1000, 1000},
		{"5000", Reached5000, 5000},
		{"10000", Reached10000, 10000},
		{"50000", Reached50000, 50000},
		{"100000", Reached100000, 100000},
		{"500000", Reached500000, 500000},
		{"response", ReachedResponseThreshold, 10000},
		{"debate", ReachedDebateThreshold, 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.pred(withSignatures(1, tt.n-1)))
			assert.True(t, tt.pred(withSignatures(1, tt.n)))
		})
	}
}

func TestDocumentPredicates(t *testing.T) {
	debateDay := time.Date(2025, 3, 10, 16, 30, 0, 0, time.UTC)

	bare := &petition.Petition{ID: 1}
	responded := &petition.Petition{ID: 1, GovernmentResponse: &petition.Response{Summary: "No plans"}}
	debated := &petition.Petition{ID: 1, Debate: &petition.Debate{DebatedOn: "2025-03-10"}}
	transcript := &petition.Petition{ID: 1, Debate: &petition.Debate{TranscriptURL: "https://hansard.parliament.uk/x"}}
	scheduled := &petition.Petition{ID: 1, ScheduledDebateDate: &debateDay}

	assert.False(t, GovernmentResponded(bare))
	assert.True(t, GovernmentResponded(responded))

	assert.False(t, Debated(bare))
	assert.True(t, Debated(debated))

	assert.False(t, DebateTranscriptAvailable(bare))
	assert.False(t, DebateTranscriptAvailable(debated), "debate without transcript")
	assert.True(t, DebateTranscriptAvailable(transcript))

	assert.False(t, DebateScheduled(bare))
	assert.True(t, DebateScheduled(scheduled))

	assert.False(t, GovernmentResponded(nil))
	assert.False(t, DebateScheduled(nil))
}

func TestSamePetition(t *testing.T) {
	assert.True(t, SamePetition(withSignatures(1, 5), withSignatures(1, 500)))
	assert.False(t, SamePetition(withSignatures(1, 5), withSignatures(2, 5)))
	assert.False(t, SamePetition(nil, withSignatures(1, 5)))
}

func TestDeltaChecks(t *testing.T) {
	tests := []struct {
		name  string
		check Check
		old   int
		cur   int
		want  bool
	}{
		{"response crossed", DeltaReachedResponseThreshold, 5, 10005, true},
		{"response already reached", DeltaReachedResponseThreshold, 10001, 10005, false},
		{"response not reached", DeltaReachedResponseThreshold, 5, 9999, false},
		{"debate crossed", DeltaReachedDebateThreshold, 99999, 100000, true},
		{"debate falls back", DeltaReachedDebateThreshold, 100000, 99999, false},
		{"10 crossed", DeltaReached10, 9, 10, true},
		{"500000 crossed", DeltaReached500000, 499999, 500001, true},
		{"custom crossed", DeltaReachedSignatureCount(42), 41, 42, true},
		{"custom unchanged", DeltaReachedSignatureCount(42), 42, 42, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.check(withSignatures(7, tt.cur), withSignatures(7, tt.old))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeltaDocumentChecks(t *testing.T) {
	bare := &petition.Petition{ID: 3}
	responded := &petition.Petition{ID: 3, GovernmentResponse: &petition.Response{Summary: "Yes"}}
	debated := &petition.Petition{ID: 3, Debate: &petition.Debate{}}
	transcript := &petition.Petition{ID: 3, Debate: &petition.Debate{TranscriptURL: "https://hansard.parliament.uk/x"}}

	assert.True(t, DeltaGovernmentResponded(responded, bare))
	assert.False(t, DeltaGovernmentResponded(responded, responded))
	assert.False(t, DeltaGovernmentResponded(bare, responded))

	assert.True(t, DeltaDebated(debated, bare))
	assert.False(t, DeltaDebated(transcript, debated))

	assert.True(t, DeltaDebateTranscriptAvailable(transcript, debated))
	assert.False(t, DeltaDebateTranscriptAvailable(debated, bare))
}

func TestDeltaDebateScheduling(t *testing.T) {
	first := time.Date(2025, 3, 10, 16, 30, 0, 0, time.UTC)
	moved := time.Date(2025, 3, 17, 16, 30, 0, 0, time.UTC)
	sameInstant := first.In(time.FixedZone("BST", 3600))

	bare := &petition.Petition{ID: 9}
	scheduled := &petition.Petition{ID: 9, ScheduledDebateDate: &first}
	rescheduled := &petition.Petition{ID: 9, ScheduledDebateDate: &moved}
	sameDate := &petition.Petition{ID: 9, ScheduledDebateDate: &sameInstant}

	assert.True(t, DeltaDebateScheduled(scheduled, bare))
	assert.False(t, DeltaDebateScheduled(rescheduled, scheduled))

	assert.True(t, DeltaDebateRescheduled(rescheduled, scheduled))
	assert.False(t, DeltaDebateRescheduled(scheduled, bare), "first scheduling is not a reschedule")
	assert.False(t, DeltaDebateRescheduled(bare, scheduled))
	assert.False(t, DeltaDebateRescheduled(sameDate, scheduled), "same instant in another zone")
}

func TestDeltaChecks_PanicOnDifferentPetitions(t *testing.T) {
	checks := map[string]Check{
		"signatures":  DeltaReachedSignatureCount(10),
		"response":    DeltaReachedResponseThreshold,
		"government":  DeltaGovernmentResponded,
		"debated":     DeltaDebated,
		"transcript":  DeltaDebateTranscriptAvailable,
		"scheduled":   DeltaDebateScheduled,
		"rescheduled": DeltaDebateRescheduled,
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected a panic")
				err, ok := r.(error)
				require.True(t, ok)
				assert.ErrorIs(t, err, ErrDifferentPetitions)
			}()
			check(withSignatures(1, 20), withSignatures(2, 5))
		})
	}
}

func TestDelta_NilOldPanics(t *testing.T) {
	assert.Panics(t, func() {
		DeltaReached10(withSignatures(1, 20), nil)
	})
}
