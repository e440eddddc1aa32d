// Package petition defines the petition records exchanged with the UK
// Parliament petitions API and the canonical Petition shape the rest of the
// module works with.
//
// The API returns the same envelope for list pages and single petitions:
//
//	GET /petitions.json?page=1&state=all   -> Page  {links, data: [Raw...]}
//	GET /petitions/<id>.json               -> Detail{links, data: Raw}
//
// A Raw record from a list page is a summary; the detail endpoint adds the
// signature breakdowns by country and constituency. Enrich turns either shape
// into a Petition.
package petition

// ID identifies a petition. It is stable for the petition's lifetime.
type ID int64

// Response is the government response to a petition.
type Response struct {
	Summary   string `json:"summary"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Debate describes the parliamentary debate of a petition.
type Debate struct {
	DebatedOn     string `json:"debated_on,omitempty"`
	TranscriptURL string `json:"transcript_url,omitempty"`
	VideoURL      string `json:"video_url,omitempty"`
	Overview      string `json:"overview,omitempty"`
}

// CountrySignatures is the number of signatures from one country.
type CountrySignatures struct {
	Name           string `json:"name"`
	Code           string `json:"code,omitempty"`
	SignatureCount int    `json:"signature_count"`
}

// ConstituencySignatures is the number of signatures from one constituency.
type ConstituencySignatures struct {
	Name           string `json:"name"`
	ONSCode        string `json:"ons_code"`
	MP             string `json:"mp"`
	SignatureCount int    `json:"signature_count"`
}

// Attributes is the information the API knows about a petition. Timestamps
// are kept as the API sends them; an absent or null timestamp is empty.
type Attributes struct {
	Action                     string                   `json:"action"`
	Background                 string                   `json:"background"`
	AdditionalDetails          string                   `json:"additional_details"`
	State                      string                   `json:"state"`
	SignatureCount             int                      `json:"signature_count"`
	CreatedAt                  string                   `json:"created_at"`
	UpdatedAt                  string                   `json:"updated_at"`
	OpenedAt                   string                   `json:"opened_at"`
	ClosedAt                   string                   `json:"closed_at"`
	RejectedAt                 string                   `json:"rejected_at"`
	GovernmentResponseAt       string                   `json:"government_response_at"`
	ResponseThresholdReachedAt string                   `json:"response_threshold_reached_at"`
	DebateThresholdReachedAt   string                   `json:"debate_threshold_reached_at"`
	ScheduledDebateDate        string                   `json:"scheduled_debate_date"`
	GovernmentResponse         *Response                `json:"government_response"`
	Debate                     *Debate                  `json:"debate"`
	SignaturesByCountry        []CountrySignatures      `json:"signatures_by_country,omitempty"`
	SignaturesByConstituency   []ConstituencySignatures `json:"signatures_by_constituency,omitempty"`
}

// Raw is a petition as returned by the API.
type Raw struct {
	Type       string            `json:"type"`
	ID         ID                `json:"id"`
	Links      map[string]string `json:"links,omitempty"`
	Attributes Attributes        `json:"attributes"`
}

// Links are the pagination links of a page. A nil Next marks the last page.
type Links struct {
	Self  string  `json:"self"`
	First string  `json:"first"`
	Last  string  `json:"last"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

// Page is one page of petition summaries.
type Page struct {
	Links Links `json:"links"`
	Data  []Raw `json:"data"`
}

// HasNext reports whether another page follows this one.
func (p *Page) HasNext() bool {
	return p != nil && p.Links.Next != nil && *p.Links.Next != ""
}

// Detail is the envelope of a single petition.
type Detail struct {
	Links map[string]string `json:"links,omitempty"`
	Data  Raw               `json:"data"`
}
