package detector

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/wallarm/wafpresence/internal/fingerprint"
	"github.com/wallarm/wafpresence/internal/observation"
)

// Weights of a single vendor-attributed match.
const (
	headerWeight = 0.25
	cookieWeight = 0.20
	bodyWeight   = 0.15
)

const (
	// A rule votes for its vendor only if its raw vote reaches
	// voteThreshold, and never with more than voteCap.
	voteThreshold = 0.4
	voteCap       = 0.7

	// Weights are binary fractions of multiples of 0.05, so thresholds
	// are compared with a small tolerance.
	epsilon = 1e-9
)

const setCookieHeader = "set-cookie"

// headers is a normalized view of the observation headers.
type headers struct {
	values map[string]string
	// keys sorted, so that wildcard lookups are deterministic
	keys []string
}

func normalizeHeaders(raw map[string]string) *headers {
	h := &headers{
		values: make(map[string]string, len(raw)),
	}

	// names folding to the same key: the lexically last one wins
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		h.values[strings.TrimSpace(strings.ToLower(k))] = strings.TrimSpace(strings.ToLower(raw[k]))
	}

	h.keys = make([]string, 0, len(h.values))
	for k := range h.values {
		h.keys = append(h.keys, k)
	}
	sort.Strings(h.keys)

	return h
}

// find tests a header rule and returns the value of the header that
// satisfied it.
func (h *headers) find(rule fingerprint.HeaderMatch) (string, bool) {
	needle := strings.ToLower(rule.Contains)

	if !rule.IsWildcard() {
		v, ok := h.values[strings.ToLower(rule.Key)]
		if !ok || !strings.Contains(v, needle) {
			return "", false
		}
		return v, true
	}

	prefix := rule.Prefix()
	for _, k := range h.keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if v := h.values[k]; strings.Contains(v, needle) {
			return v, true
		}
	}

	return "", false
}

// matcher collects indicators and vendor votes for one observation.
type matcher struct {
	headers   *headers
	cookies   string
	body      string
	lowerBody string

	indicators []*Indicator
	votes      []*VendorVote
	voteIndex  map[string]*VendorVote
}

func newMatcher(ob *observation.Observation) *matcher {
	h := normalizeHeaders(ob.Headers)
	body := ob.Body()

	return &matcher{
		headers:   h,
		cookies:   h.values[setCookieHeader],
		body:      body,
		lowerBody: strings.ToLower(body),
		voteIndex: make(map[string]*VendorVote),
	}
}

// match runs all vendor rules in registry order, then the generic hints.
// The order of the resulting indicators is part of the report.
func match(ob *observation.Observation, reg *fingerprint.Registry) ([]*Indicator, []*VendorVote) {
	m := newMatcher(ob)

	for _, rule := range reg.Vendors {
		m.matchRule(rule)
	}

	// Header, cookie and body-contains hints come before the body patterns.
	for _, hint := range reg.Generic {
		if hint.Kind != fingerprint.BodyRegex {
			m.matchHint(hint)
		}
	}
	for _, hint := range reg.Generic {
		if hint.Kind == fingerprint.BodyRegex {
			m.matchHint(hint)
		}
	}

	return m.indicators, m.votes
}

func (m *matcher) matchRule(rule *fingerprint.Rule) {
	vote := 0.0

	for _, hm := range rule.Headers {
		value, ok := m.headers.find(hm)
		if !ok {
			continue
		}
		m.add(SourceHeaderPrefix+hm.Key, hm.Key, value, headerWeight, fmt.Sprintf("%s hint", rule.Vendor))
		vote += headerWeight
	}

	for _, name := range rule.Cookies {
		if !strings.Contains(m.cookies, strings.ToLower(name)) {
			continue
		}
		m.add(SourceCookie, name, name, cookieWeight, fmt.Sprintf("%s cookie hint", rule.Vendor))
		vote += cookieWeight
	}

	for _, needle := range rule.Body {
		if strings.TrimSpace(needle) == "" || !strings.Contains(m.lowerBody, strings.ToLower(needle)) {
			continue
		}
		m.add(SourceBody, BodyKeyContains, needle, bodyWeight, fmt.Sprintf("%s body hint", rule.Vendor))
		vote += bodyWeight
	}

	if vote+epsilon >= voteThreshold {
		m.vote(rule.Vendor, math.Min(vote, voteCap))
	}
}

func (m *matcher) matchHint(hint *fingerprint.Hint) {
	switch hint.Kind {
	case fingerprint.HeaderContains:
		if value, ok := m.headers.find(hint.Header()); ok {
			m.add(SourceHeaderPrefix+hint.Key, hint.Key, value, hint.Weight, hint.Note)
		}

	case fingerprint.CookieContains:
		if strings.Contains(m.cookies, strings.ToLower(hint.Value)) {
			m.add(SourceCookie, hint.Value, hint.Value, hint.Weight, hint.Note)
		}

	case fingerprint.BodyContains:
		if strings.Contains(m.lowerBody, strings.ToLower(hint.Value)) {
			m.add(SourceBody, BodyKeyContains, hint.Value, hint.Weight, hint.Note)
		}

	case fingerprint.BodyRegex:
		if re := hint.Regexp(); re != nil && re.MatchString(m.body) {
			m.add(SourceBody, BodyKeyPattern, hint.Value, hint.Weight, hint.Note)
		}

	default:
		panic(fmt.Sprintf("unknown hint kind: %q", hint.Kind))
	}
}

func (m *matcher) add(source, key, value string, weight float64, note string) {
	m.indicators = append(m.indicators, &Indicator{
		Source: source,
		Key:    key,
		Value:  value,
		Weight: weight,
		Note:   note,
	})
}

func (m *matcher) vote(vendor string, score float64) {
	if v, ok := m.voteIndex[vendor]; ok {
		v.Score += score
		return
	}

	v := &VendorVote{Vendor: vendor, Score: score}
	m.voteIndex[vendor] = v
	m.votes = append(m.votes, v)
}
