package negotiate

import (
	"net/http"
	"reflect"
	"testing"
)

func header(kv ...string) http.Header {
	h := make(http.Header)
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

// Types

func TestTypes(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		offers []string
		want   []string
	}{
		{
			name:   "exact match",
			accept: "application/json",
			offers: []string{"application/json", "text/html"},
			want:   []string{"application/json"},
		},
		{
			name:   "quality ordering",
			accept: "text/html;q=0.3, application/json;q=0.8",
			offers: []string{"text/html", "application/json"},
			want:   []string{"application/json", "text/html"},
		},
		{
			name:   "type wildcard",
			accept: "text/*",
			offers: []string{"application/json", "text/plain", "text/html"},
			want:   []string{"text/plain", "text/html"},
		},
		{
			name:   "full wildcard keeps offer order",
			accept: "*/*",
			offers: []string{"text/html", "application/json"},
			want:   []string{"text/html", "application/json"},
		},
		{
			name:   "specific match beats later wildcard quality",
			accept: "text/html;q=0.2, */*;q=0.9",
			offers: []string{"text/html"},
			want:   []string{"text/html"},
		},
		{
			name:   "zero quality excludes",
			accept: "text/html;q=0",
			offers: []string{"text/html"},
			want:   nil,
		},
		{
			name:   "nothing acceptable",
			accept: "image/png",
			offers: []string{"text/html"},
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(header("Accept", tt.accept))
			if got := n.Types(tt.offers...); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Types(%v) with Accept=%q = %v, want %v", tt.offers, tt.accept, got, tt.want)
			}
		})
	}
}

func TestTypes_AbsentHeaderAcceptsAll(t *testing.T) {
	n := New(header())
	got := n.Types("application/json", "text/html")
	want := []string{"application/json", "text/html"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Types = %v, want offers unchanged", got)
	}
	if all := n.Types(); !reflect.DeepEqual(all, []string{"*/*"}) {
		t.Fatalf("Types() = %v, want [*/*]", all)
	}
}

// Encodings

func TestEncodings(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		offers []string
		want   []string
	}{
		{
			name:   "quality ordering",
			accept: "gzip, br;q=0.5",
			offers: []string{"br", "gzip"},
			want:   []string{"gzip", "br"},
		},
		{
			name:   "implicit identity",
			accept: "gzip",
			offers: []string{"identity"},
			want:   []string{"identity"},
		},
		{
			name:   "identity explicitly forbidden",
			accept: "gzip, identity;q=0",
			offers: []string{"identity"},
			want:   nil,
		},
		{
			name:   "wildcard",
			accept: "*",
			offers: []string{"br"},
			want:   []string{"br"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(header("Accept-Encoding", tt.accept))
			if got := n.Encodings(tt.offers...); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Encodings(%v) with header %q = %v, want %v", tt.offers, tt.accept, got, tt.want)
			}
		})
	}
}

func TestEncodings_AbsentHeaderIdentityOnly(t *testing.T) {
	n := New(header())
	if got := n.Encodings("gzip"); got != nil {
		t.Fatalf("Encodings(gzip) = %v, want nil without header", got)
	}
	if got := n.Encodings("gzip", "identity"); !reflect.DeepEqual(got, []string{"identity"}) {
		t.Fatalf("Encodings = %v, want [identity]", got)
	}
}

// Charsets

func TestCharsets(t *testing.T) {
	n := New(header("Accept-Charset", "utf-8;q=0.8, iso-8859-1;q=0.3"))
	got := n.Charsets("iso-8859-1", "utf-8", "utf-16")
	want := []string{"utf-8", "iso-8859-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Charsets = %v, want %v", got, want)
	}
}

func TestCharsets_AbsentHeaderAcceptsAll(t *testing.T) {
	n := New(header())
	got := n.Charsets("utf-8", "utf-16")
	if !reflect.DeepEqual(got, []string{"utf-8", "utf-16"}) {
		t.Fatalf("Charsets = %v, want offer order preserved", got)
	}
}

// Languages

func TestLanguages(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		offers []string
		want   []string
	}{
		{
			name:   "exact",
			accept: "en",
			offers: []string{"en", "fr"},
			want:   []string{"en"},
		},
		{
			name:   "primary tag accepts regional offer",
			accept: "en",
			offers: []string{"en-US"},
			want:   []string{"en-US"},
		},
		{
			name:   "regional tag accepts primary offer",
			accept: "en-US",
			offers: []string{"en"},
			want:   []string{"en"},
		},
		{
			name:   "quality ordering",
			accept: "fr;q=0.9, en;q=0.4",
			offers: []string{"en", "fr"},
			want:   []string{"fr", "en"},
		},
		{
			name:   "case insensitive",
			accept: "EN-us",
			offers: []string{"en-US"},
			want:   []string{"en-US"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(header("Accept-Language", tt.accept))
			if got := n.Languages(tt.offers...); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Languages(%v) with header %q = %v, want %v", tt.offers, tt.accept, got, tt.want)
			}
		})
	}
}

func TestParseQuality_Malformed(t *testing.T) {
	specs := parseQuality("gzip;q=oops, , br;q=0.5;ext=1")
	if len(specs) != 2 {
		t.Fatalf("parsed %d specs, want 2: %v", len(specs), specs)
	}
	if specs[0].value != "gzip" || specs[0].q != 1.0 {
		t.Fatalf("malformed q should default to 1: %+v", specs[0])
	}
	if specs[1].value != "br" || specs[1].q != 0.5 {
		t.Fatalf("br spec = %+v", specs[1])
	}
}
