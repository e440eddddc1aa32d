// Package testutil provides a mock petitions API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/petition"
)

// DefaultPageSize matches the page size of the live API.
const DefaultPageSize = 50

// MockResponse defines a canned answer for one path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockPetitions serves /petitions.json and /petitions/<id>.json from an
// in-memory set of petitions. Pages hold PageSize petitions ordered by id
// and link to each other like the real API.
type MockPetitions struct {
	server *httptest.Server

	mu        sync.RWMutex
	petitions map[petition.ID]petition.Raw
	pageSize  int
	handlers  map[string]http.HandlerFunc
	requests  map[string]int

	conditional int
}

// NewMockPetitions starts a mock server holding the given petitions.
func NewMockPetitions(records ...petition.Raw) *MockPetitions {
	m := &MockPetitions{
		petitions: make(map[petition.ID]petition.Raw),
		pageSize:  DefaultPageSize,
		handlers:  make(map[string]http.HandlerFunc),
		requests:  make(map[string]int),
	}
	for _, r := range records {
		m.petitions[r.ID] = r
	}

	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the mock server URL.
func (m *MockPetitions) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockPetitions) Close() {
	m.server.Close()
}

// Put adds or replaces a petition.
func (m *MockPetitions) Put(r petition.Raw) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.petitions[r.ID] = r
}

// Remove deletes a petition.
func (m *MockPetitions) Remove(id petition.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.petitions, id)
}

// SetPageSize changes how many petitions each page holds.
func (m *MockPetitions) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.pageSize = n
	}
}

// SetHandler overrides the handler for a path ("/petitions.json" or
// "/petitions/1.json").
func (m *MockPetitions) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse answers path with a fixed response.
func (m *MockPetitions) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns how many requests hit path. An empty path counts all.
func (m *MockPetitions) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path != "" {
		return m.requests[path]
	}
	total := 0
	for _, n := range m.requests {
		total += n
	}
	return total
}

// ConditionalCount returns the number of conditional requests received.
func (m *MockPetitions) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditional
}

func (m *MockPetitions) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests[r.URL.Path]++
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.conditional++
	}
	handler := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}

	switch {
	case r.URL.Path == "/petitions.json":
		m.servePage(w, r)
	case strings.HasPrefix(r.URL.Path, "/petitions/") && strings.HasSuffix(r.URL.Path, ".json"):
		m.serveDetail(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockPetitions) servePage(w http.ResponseWriter, r *http.Request) {
	pageNum := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		pageNum = n
	}
	state := r.URL.Query().Get("state")

	m.mu.RLock()
	ids := make([]petition.ID, 0, len(m.petitions))
	for id, p := range m.petitions {
		if state == "" || state == "all" || p.Attributes.State == state {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	size := m.pageSize
	start := (pageNum - 1) * size
	end := start + size
	if start > len(ids) {
		start = len(ids)
	}
	if end > len(ids) {
		end = len(ids)
	}

	page := petition.Page{Data: make([]petition.Raw, 0, end-start)}
	for _, id := range ids[start:end] {
		summary := m.petitions[id]
		summary.Attributes.SignaturesByCountry = nil
		summary.Attributes.SignaturesByConstituency = nil
		page.Data = append(page.Data, summary)
	}
	m.mu.RUnlock()

	lastPage := (len(ids) + size - 1) / size
	if lastPage < 1 {
		lastPage = 1
	}
	page.Links = petition.Links{
		Self:  m.pageURL(pageNum, state),
		First: m.pageURL(1, state),
		Last:  m.pageURL(lastPage, state),
	}
	if pageNum < lastPage {
		next := m.pageURL(pageNum+1, state)
		page.Links.Next = &next
	}
	if pageNum > 1 {
		prev := m.pageURL(pageNum-1, state)
		page.Links.Prev = &prev
	}

	m.writeJSON(w, r, page)
}

func (m *MockPetitions) serveDetail(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/petitions/"), ".json")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	p, ok := m.petitions[petition.ID(id)]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	if p.Attributes.SignaturesByCountry == nil {
		p.Attributes.SignaturesByCountry = []petition.CountrySignatures{
			{Name: "United Kingdom", Code: "GB", SignatureCount: p.Attributes.SignatureCount},
		}
	}
	m.writeJSON(w, r, petition.Detail{
		Links: map[string]string{"self": m.server.URL + r.URL.Path},
		Data:  p,
	})
}

func (m *MockPetitions) pageURL(n int, state string) string {
	u := fmt.Sprintf("%s/petitions.json?page=%d", m.server.URL, n)
	if state != "" {
		u += "&state=" + state
	}
	return u
}

// writeJSON answers with v, or 304 when the client already holds this body.
func (m *MockPetitions) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h := fnv.New64a()
	h.Write(body)
	etag := fmt.Sprintf(`"%x"`, h.Sum64())

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "max-age=60, public")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// NewRaw builds a petition record for tests.
func NewRaw(id petition.ID, state string, signatures int) petition.Raw {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour)
	return petition.Raw{
		Type: "petition",
		ID:   id,
		Links: map[string]string{
			"self": fmt.Sprintf("%s/petitions/%d.json", petition.BaseURL, id),
		},
		Attributes: petition.Attributes{
			Action:         fmt.Sprintf("Petition %d", id),
			Background:     "Background",
			State:          state,
			SignatureCount: signatures,
			CreatedAt:      created.Format(time.RFC3339Nano),
			UpdatedAt:      created.Format(time.RFC3339Nano),
			OpenedAt:       created.Format(time.RFC3339Nano),
		},
	}
}
