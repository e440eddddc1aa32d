package petition

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// BaseURL is the public site of the petitions service.
const BaseURL = "https://petition.parliament.uk"

// Petition states reported by the API.
const (
	StatePending  = "pending"
	StateOpen     = "open"
	StateClosed   = "closed"
	StateRejected = "rejected"
	StateHidden   = "hidden"
)

var (
	// ErrNilRecord is returned when a transform receives no record.
	ErrNilRecord = errors.New("petition record is nil")

	// ErrInvalidTimestamp is returned when a timestamp cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid petition timestamp")
)

// Transform converts a raw record into the canonical shape. A nil result or
// non-nil error means the record could not be transformed.
type Transform func(raw *Raw) (*Petition, error)

// Petition is the canonical petition record. Every predicate, snapshot entry
// and notification uses this shape. Values handed out by the snapshot are
// copies; mutating them has no effect on stored state.
type Petition struct {
	ID                         ID                       `json:"id"`
	Action                     string                   `json:"action"`
	Background                 string                   `json:"background"`
	AdditionalDetails          string                   `json:"additional_details"`
	State                      string                   `json:"state"`
	SignatureCount             int                      `json:"signature_count"`
	CreatedAt                  *time.Time               `json:"created_at,omitempty"`
	UpdatedAt                  *time.Time               `json:"updated_at,omitempty"`
	OpenedAt                   *time.Time               `json:"opened_at,omitempty"`
	ClosedAt                   *time.Time               `json:"closed_at,omitempty"`
	RejectedAt                 *time.Time               `json:"rejected_at,omitempty"`
	GovernmentResponseAt       *time.Time               `json:"government_response_at,omitempty"`
	ResponseThresholdReachedAt *time.Time               `json:"response_threshold_reached_at,omitempty"`
	DebateThresholdReachedAt   *time.Time               `json:"debate_threshold_reached_at,omitempty"`
	ScheduledDebateDate        *time.Time               `json:"scheduled_debate_date,omitempty"`
	GovernmentResponse         *Response                `json:"government_response,omitempty"`
	Debate                     *Debate                  `json:"debate,omitempty"`
	SignaturesByCountry        []CountrySignatures      `json:"signatures_by_country,omitempty"`
	SignaturesByConstituency   []ConstituencySignatures `json:"signatures_by_constituency,omitempty"`

	HTMLURL         string `json:"html_url"`
	JSONURL         string `json:"json_url"`
	HTMLDetailURL   string `json:"html_detail_url"`
	HTMLResponseURL string `json:"html_response_url"`
	HTMLDebateURL   string `json:"html_debate_url"`

	// Detailed is true when the record came from the detail endpoint.
	Detailed bool `json:"detailed"`
}

// Enrich is the default transform. It flattens the attributes, parses every
// timestamp and derives the petition's URLs.
func Enrich(raw *Raw) (*Petition, error) {
	if raw == nil {
		return nil, ErrNilRecord
	}
	a := raw.Attributes

	p := &Petition{
		ID:                 raw.ID,
		Action:             a.Action,
		Background:         a.Background,
		AdditionalDetails:  a.AdditionalDetails,
		State:              a.State,
		SignatureCount:     a.SignatureCount,
		GovernmentResponse: cloneResponse(a.GovernmentResponse),
		Debate:             cloneDebate(a.Debate),
		Detailed:           a.SignaturesByCountry != nil,
	}
	if a.SignaturesByCountry != nil {
		p.SignaturesByCountry = append([]CountrySignatures{}, a.SignaturesByCountry...)
	}
	if a.SignaturesByConstituency != nil {
		p.SignaturesByConstituency = append([]ConstituencySignatures{}, a.SignaturesByConstituency...)
	}

	timestamps := []struct {
		key   string
		value string
		dst   **time.Time
	}{
		{"created_at", a.CreatedAt, &p.CreatedAt},
		{"updated_at", a.UpdatedAt, &p.UpdatedAt},
		{"opened_at", a.OpenedAt, &p.OpenedAt},
		{"closed_at", a.ClosedAt, &p.ClosedAt},
		{"rejected_at", a.RejectedAt, &p.RejectedAt},
		{"government_response_at", a.GovernmentResponseAt, &p.GovernmentResponseAt},
		{"response_threshold_reached_at", a.ResponseThresholdReachedAt, &p.ResponseThresholdReachedAt},
		{"debate_threshold_reached_at", a.DebateThresholdReachedAt, &p.DebateThresholdReachedAt},
		{"scheduled_debate_date", a.ScheduledDebateDate, &p.ScheduledDebateDate},
	}
	for _, ts := range timestamps {
		t, err := ParseTimestamp(ts.value)
		if err != nil {
			return nil, fmt.Errorf("petition %d: %s: %w", raw.ID, ts.key, err)
		}
		*ts.dst = t
	}

	p.HTMLURL = fmt.Sprintf("%s/petitions/%d", BaseURL, p.ID)
	p.JSONURL = fmt.Sprintf("%s/petitions/%d.json", BaseURL, p.ID)
	p.HTMLDetailURL = fmt.Sprintf("%s/petitions/%d#details-content-0", BaseURL, p.ID)
	p.HTMLResponseURL = fmt.Sprintf("%s/petitions/%d?reveal_response=yes#response-threshold", BaseURL, p.ID)
	p.HTMLDebateURL = fmt.Sprintf("%s/petitions/%d?#debate-threshold", BaseURL, p.ID)

	return p, nil
}

// WithoutBreakdowns enriches a record and drops the signature breakdowns, so
// that detail and summary records of an unchanged petition compare equal.
func WithoutBreakdowns(raw *Raw) (*Petition, error) {
	p, err := Enrich(raw)
	if err != nil {
		return nil, err
	}
	p.SignaturesByCountry = nil
	p.SignaturesByConstituency = nil
	p.Detailed = false
	return p, nil
}

// timestampLayouts are tried in order. The API sends RFC 3339 timestamps with
// milliseconds, and plain dates for scheduled debates.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.DateOnly,
}

// ParseTimestamp parses an API timestamp. An empty string is no timestamp.
// Parsed times are normalised to UTC so equal instants compare equal.
func ParseTimestamp(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// Equal reports whether two petitions are deeply equal.
func (p *Petition) Equal(other *Petition) bool {
	return reflect.DeepEqual(p, other)
}

// Clone returns a deep copy of the petition.
func (p *Petition) Clone() *Petition {
	if p == nil {
		return nil
	}
	c := *p
	c.CreatedAt = cloneTime(p.CreatedAt)
	c.UpdatedAt = cloneTime(p.UpdatedAt)
	c.OpenedAt = cloneTime(p.OpenedAt)
	c.ClosedAt = cloneTime(p.ClosedAt)
	c.RejectedAt = cloneTime(p.RejectedAt)
	c.GovernmentResponseAt = cloneTime(p.GovernmentResponseAt)
	c.ResponseThresholdReachedAt = cloneTime(p.ResponseThresholdReachedAt)
	c.DebateThresholdReachedAt = cloneTime(p.DebateThresholdReachedAt)
	c.ScheduledDebateDate = cloneTime(p.ScheduledDebateDate)
	c.GovernmentResponse = cloneResponse(p.GovernmentResponse)
	c.Debate = cloneDebate(p.Debate)
	if p.SignaturesByCountry != nil {
		c.SignaturesByCountry = append([]CountrySignatures{}, p.SignaturesByCountry...)
	}
	if p.SignaturesByConstituency != nil {
		c.SignaturesByConstituency = append([]ConstituencySignatures{}, p.SignaturesByConstituency...)
	}
	return &c
}

// IsWithdrawn reports whether the petition is closed or rejected.
func (p *Petition) IsWithdrawn() bool {
	return p.State == StateRejected || p.State == StateClosed
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneResponse(r *Response) *Response {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func cloneDebate(d *Debate) *Debate {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
