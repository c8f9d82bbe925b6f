// Package negotiate implements proactive HTTP content negotiation:
// quality-weighted selection of media types, charsets, encodings, and
// languages from the request's Accept* headers.
//
// Media range parsing is delegated to github.com/munnerz/goautoneg; the
// simpler token-form headers (Accept-Charset, Accept-Encoding,
// Accept-Language) are parsed here.
package negotiate

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/munnerz/goautoneg"
)

// Negotiator selects acceptable values for each negotiated axis. Each method
// filters and orders the given candidates best-first; with no candidates it
// returns everything the request accepts, quality-sorted. A nil or empty
// result means nothing offered is acceptable.
type Negotiator interface {
	Types(offers ...string) []string
	Encodings(offers ...string) []string
	Charsets(offers ...string) []string
	Languages(offers ...string) []string
}

// New returns the default Negotiator bound to the given header mapping.
// The headers are read lazily on each call, not snapshotted.
func New(h http.Header) Negotiator {
	return &negotiator{header: h}
}

type negotiator struct {
	header http.Header
}

// priority scores one offer against the parsed header: s is match
// specificity, q the effective quality, o the index of the winning header
// entry. Offers that match nothing keep q == 0 and are dropped.
type priority struct {
	offer string
	index int
	s     int
	q     float64
	o     int
}

func sortPriorities(ps []priority) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.q != b.q {
			return a.q > b.q
		}
		if a.s != b.s {
			return a.s > b.s
		}
		if a.o != b.o {
			return a.o < b.o
		}
		return a.index < b.index
	})
}

func collect(ps []priority) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		if p.q > 0 {
			out = append(out, p.offer)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Types negotiates media types against the Accept header. An absent header
// accepts everything, so the offers come back in their given order.
func (n *negotiator) Types(offers ...string) []string {
	header, ok := headerValue(n.header, "Accept")
	if !ok {
		if len(offers) == 0 {
			return []string{"*/*"}
		}
		return append([]string(nil), offers...)
	}

	accepted := goautoneg.ParseAccept(header)
	if len(offers) == 0 {
		var out []string
		for _, a := range accepted {
			if a.Q > 0 {
				out = append(out, a.Type+"/"+a.SubType)
			}
		}
		return out
	}

	ps := make([]priority, 0, len(offers))
	for i, offer := range offers {
		ot, os, okc := strings.Cut(strings.ToLower(offer), "/")
		if !okc {
			continue
		}
		if j := strings.IndexByte(os, ';'); j >= 0 {
			os = strings.TrimSpace(os[:j])
		}
		best := priority{offer: offer, index: i}
		for o, a := range accepted {
			s, match := specifyType(ot, os, a)
			if !match {
				continue
			}
			cand := priority{offer: offer, index: i, s: s, q: a.Q, o: o}
			if cand.s > best.s || (cand.s == best.s && cand.q > best.q) {
				best = cand
			}
		}
		if best.q > 0 {
			ps = append(ps, best)
		}
	}
	sortPriorities(ps)
	return collect(ps)
}

func specifyType(ot, os string, a goautoneg.Accept) (int, bool) {
	at := strings.ToLower(a.Type)
	as := strings.ToLower(a.SubType)
	s := 0
	switch {
	case at == ot:
		s |= 4
	case at != "*":
		return 0, false
	}
	switch {
	case as == os:
		s |= 2
	case as != "*":
		return 0, false
	}
	return s, true
}

// Charsets negotiates against Accept-Charset; absent header accepts all.
func (n *negotiator) Charsets(offers ...string) []string {
	return n.tokens("Accept-Charset", offers, nil)
}

// Languages negotiates against Accept-Language; absent header accepts all.
// A range like "en" matches "en" exactly and "en-US" by prefix.
func (n *negotiator) Languages(offers ...string) []string {
	return n.tokens("Accept-Language", offers, specifyLanguage)
}

// Encodings negotiates against Accept-Encoding. Identity is implicitly
// acceptable at the lowest quality seen in the header unless the header
// rules it out (e.g. "identity;q=0" or a zero-quality wildcard).
func (n *negotiator) Encodings(offers ...string) []string {
	header, _ := headerValue(n.header, "Accept-Encoding")
	specs := parseQuality(header)

	hasIdentity := false
	minQ := 1.0
	for _, sp := range specs {
		if sp.value == "identity" || sp.value == "*" {
			hasIdentity = true
		}
		if sp.q < minQ {
			minQ = sp.q
		}
	}
	if !hasIdentity {
		specs = append(specs, qspec{value: "identity", q: minQ, order: len(specs)})
	}
	return match(specs, offers, nil)
}

func (n *negotiator) tokens(name string, offers []string, specify specifyFunc) []string {
	header, ok := headerValue(n.header, name)
	if !ok {
		header = "*"
	}
	return match(parseQuality(header), offers, specify)
}

type qspec struct {
	value string
	q     float64
	order int
}

type specifyFunc func(offer string, spec qspec) (int, bool)

// specifyExact is the default token matcher: exact (case-insensitive) or "*".
func specifyExact(offer string, spec qspec) (int, bool) {
	switch {
	case spec.value == offer:
		return 1, true
	case spec.value == "*":
		return 0, true
	}
	return 0, false
}

// specifyLanguage additionally matches primary-subtag prefixes in either
// direction, at lower specificity than a full match.
func specifyLanguage(offer string, spec qspec) (int, bool) {
	if s, ok := specifyExact(offer, spec); ok {
		if spec.value == "*" {
			return s, true
		}
		return 4, true
	}
	offerPrimary, _, _ := strings.Cut(offer, "-")
	specPrimary, _, _ := strings.Cut(spec.value, "-")
	switch {
	case spec.value == offerPrimary:
		// header "en" accepts offer "en-US"
		return 2, true
	case specPrimary == offer:
		// header "en-US" accepts offer "en"
		return 1, true
	}
	return 0, false
}

func match(specs []qspec, offers []string, specify specifyFunc) []string {
	if specify == nil {
		specify = specifyExact
	}
	if len(offers) == 0 {
		sorted := append([]qspec(nil), specs...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].q != sorted[j].q {
				return sorted[i].q > sorted[j].q
			}
			return sorted[i].order < sorted[j].order
		})
		var out []string
		for _, sp := range sorted {
			if sp.q > 0 {
				out = append(out, sp.value)
			}
		}
		return out
	}

	ps := make([]priority, 0, len(offers))
	for i, offer := range offers {
		lowered := strings.ToLower(offer)
		best := priority{offer: offer, index: i}
		for _, sp := range specs {
			s, okm := specify(lowered, sp)
			if !okm {
				continue
			}
			cand := priority{offer: offer, index: i, s: s, q: sp.q, o: sp.order}
			if cand.s > best.s || (cand.s == best.s && cand.q > best.q) {
				best = cand
			}
		}
		if best.q > 0 {
			ps = append(ps, best)
		}
	}
	sortPriorities(ps)
	return collect(ps)
}

// parseQuality parses a comma-separated token header with optional ;q=
// weights ("gzip, br;q=0.8"). Malformed q values default to 1.
func parseQuality(header string) []qspec {
	var specs []qspec
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, rest, _ := strings.Cut(part, ";")
		sp := qspec{value: strings.ToLower(strings.TrimSpace(value)), q: 1.0, order: len(specs)}
		for _, param := range strings.Split(rest, ";") {
			k, v, okp := strings.Cut(param, "=")
			if !okp || strings.TrimSpace(strings.ToLower(k)) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				sp.q = q
			}
		}
		specs = append(specs, sp)
	}
	return specs
}

// headerValue reports a header distinctly from an empty one: negotiation
// treats absence as accept-all but an explicitly empty value as accept-none.
func headerValue(h http.Header, name string) (string, bool) {
	vs, ok := h[http.CanonicalHeaderKey(name)]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.Join(vs, ", "), true
}
