package cache

import (
	"net/url"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "path only",
			key:  Key{Path: "/petitions/131215.json"},
			want: "petitions:petitions/131215.json",
		},
		{
			name: "page query",
			key:  Key{Path: "/petitions.json", Query: url.Values{"page": {"2"}}},
			want: "petitions:petitions.json:page=2",
		},
		{
			name: "query names sorted",
			key: Key{
				Path:  "/petitions.json",
				Query: url.Values{"state": {"all"}, "page": {"1"}},
			},
			want: "petitions:petitions.json:page=1:state=all",
		},
		{
			name: "repeated values sorted",
			key: Key{
				Path:  "/petitions.json",
				Query: url.Values{"state": {"open", "closed"}},
			},
			want: "petitions:petitions.json:state=closed,open",
		},
		{
			name: "empty",
			key:  Key{},
			want: "petitions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_StringDoesNotReorderQuery(t *testing.T) {
	q := url.Values{"state": {"open", "closed"}}
	got := Key{Path: "/petitions.json", Query: q}.String()
	if want := "petitions:petitions.json:state=closed,open"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if q["state"][0] != "open" {
		t.Errorf("String() reordered the caller's query values: %v", q["state"])
	}
}

func TestNewKey(t *testing.T) {
	u, err := url.Parse("https://petition.parliament.uk/petitions.json?state=all&page=1")
	if err != nil {
		t.Fatal(err)
	}

	key := NewKey(u)
	if key.Path != "/petitions.json" {
		t.Errorf("Path = %q, want /petitions.json", key.Path)
	}
	if got, want := key.String(), "petitions:petitions.json:page=1:state=all"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if got := NewKey(nil).String(); got != KeyPrefix {
		t.Errorf("NewKey(nil).String() = %q, want %q", got, KeyPrefix)
	}
}
