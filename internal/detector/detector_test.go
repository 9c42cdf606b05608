package detector

import (
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallarm/wafpresence/internal/fingerprint"
	"github.com/wallarm/wafpresence/internal/observation"
)

const (
	cloudflare = "Cloudflare (edge firewall/CDN)"
	akamai     = "Akamai (edge)"
	imperva    = "Imperva/Incapsula"
	sucuri     = "Sucuri"
)

func newObservation(headers map[string]string, body *string) *observation.Observation {
	return &observation.Observation{
		URL:         "https://example.com",
		Method:      "GET",
		StatusCode:  200,
		Headers:     headers,
		BodyExcerpt: body,
	}
}

func strPtr(s string) *string {
	return &s
}

func mustLoad(t *testing.T, data string) *fingerprint.Registry {
	t.Helper()

	reg, err := fingerprint.Load([]byte(data))
	if err != nil {
		t.Fatalf("couldn't load registry: %v", err)
	}

	return reg
}

func TestAnalyzeNilObservation(t *testing.T) {
	_, err := Analyze(nil)
	if !errors.Is(err, ErrNilObservation) {
		t.Fatalf("got %v, want ErrNilObservation", err)
	}
	if !errors.Is(err, observation.ErrInvalidInput) {
		t.Errorf("nil observation must be an invalid input error")
	}
}

func TestAnalyzeEmptyObservation(t *testing.T) {
	for _, ob := range []*observation.Observation{
		newObservation(nil, nil),
		newObservation(map[string]string{}, nil),
		newObservation(map[string]string{}, strPtr("")),
	} {
		report, err := Analyze(ob)
		if err != nil {
			t.Fatalf("got an error while analysing: %v", err)
		}

		if report.Confidence != 0 || report.LikelyWAF {
			t.Errorf("got confidence %v, likely %v, want 0, false", report.Confidence, report.LikelyWAF)
		}
		if len(report.VendorGuesses) != 0 || len(report.Indicators) != 0 {
			t.Errorf("got guesses %v and %d indicators, want none", report.VendorGuesses, len(report.Indicators))
		}
		if report.Rationale != NoIndicatorsRationale {
			t.Errorf("got rationale %q", report.Rationale)
		}
	}
}

func TestAnalyzeCloudflare(t *testing.T) {
	ob := newObservation(map[string]string{
		"server":     "cloudflare",
		"cf-ray":     "123",
		"set-cookie": "__cfduid=foo",
	}, nil)

	report, err := Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	want := []Indicator{
		{Source: "header:server", Key: "server", Value: "cloudflare", Weight: 0.25, Note: cloudflare + " hint"},
		{Source: "header:cf-ray", Key: "cf-ray", Value: "123", Weight: 0.25, Note: cloudflare + " hint"},
		{Source: "cookie", Key: "__cfduid", Value: "__cfduid", Weight: 0.20, Note: cloudflare + " cookie hint"},
	}
	if len(report.Indicators) != len(want) {
		t.Fatalf("got %d indicators, want %d: %+v", len(report.Indicators), len(want), report.Indicators)
	}
	for i := range want {
		if *report.Indicators[i] != want[i] {
			t.Errorf("indicator #%d: got %+v, want %+v", i, *report.Indicators[i], want[i])
		}
	}

	if !report.LikelyWAF || report.Confidence != 0.7 {
		t.Errorf("got likely %v, confidence %v, want true, 0.7", report.LikelyWAF, report.Confidence)
	}
	if len(report.VendorGuesses) != 1 || report.VendorGuesses[0] != cloudflare {
		t.Errorf("got guesses %v", report.VendorGuesses)
	}
	if report.VendorVotes[0].Score != 0.7 {
		t.Errorf("got vote %v, want 0.7", report.VendorVotes[0].Score)
	}

	wantRationale := "Vendor hints: Cloudflare (edge firewall/CDN) (0.70); Headers: cf-ray, server; Cookies: __cfduid"
	if report.Rationale != wantRationale {
		t.Errorf("got rationale %q, want %q", report.Rationale, wantRationale)
	}
}

func TestAnalyzeHeadersAreCaseInsensitive(t *testing.T) {
	ob := newObservation(map[string]string{
		"  SERVER ":  " CloudFlare ",
		"CF-Ray":     "123",
		"Set-Cookie": "__CFDUID=foo",
	}, nil)

	report, err := Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	if len(report.Indicators) != 3 || report.Confidence != 0.7 {
		t.Errorf("got %d indicators, confidence %v", len(report.Indicators), report.Confidence)
	}
	if report.Indicators[0].Value != "cloudflare" {
		t.Errorf("indicator value must be normalized, got %q", report.Indicators[0].Value)
	}
	if ob.Headers["  SERVER "] != " CloudFlare " {
		t.Errorf("observation must not be modified")
	}
}

func TestAnalyzeDuplicateHeadersAreDeterministic(t *testing.T) {
	parsed, err := observation.ParseRaw(logrus.New(), "HTTP/1.1 403 Forbidden\nServer: nginx\nserver: cloudflare\ncf-ray: 1\n")
	if err != nil {
		t.Fatalf("got an error while parsing: %v", err)
	}

	observations := map[string]*observation.Observation{
		"parsed": parsed,
		// "server" sorts after "Server", so its value is kept
		"built": newObservation(map[string]string{
			"Server": "nginx",
			"server": "cloudflare",
			"cf-ray": "1",
		}, nil),
	}

	for name, ob := range observations {
		for i := 0; i < 100; i++ {
			report, err := Analyze(ob)
			if err != nil {
				t.Fatalf("%s: got an error while analysing: %v", name, err)
			}

			if report.Confidence != 0.5 || !report.LikelyWAF {
				t.Fatalf("%s: run %d: got confidence %v, likely %v", name, i, report.Confidence, report.LikelyWAF)
			}
			if len(report.VendorGuesses) != 1 || report.VendorGuesses[0] != cloudflare {
				t.Fatalf("%s: run %d: got guesses %v", name, i, report.VendorGuesses)
			}
		}
	}
}

func TestAnalyzeIndicatorOrder(t *testing.T) {
	ob := newObservation(map[string]string{
		"x-sucuri-id": "1",
		"server":      "AkamaiGHost",
		"cf-ray":      "1",
	}, nil)

	report, err := Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	wantNotes := []string{cloudflare + " hint", akamai + " hint", sucuri + " hint"}
	if len(report.Indicators) != len(wantNotes) {
		t.Fatalf("got %d indicators, want %d", len(report.Indicators), len(wantNotes))
	}
	for i, note := range wantNotes {
		if report.Indicators[i].Note != note {
			t.Errorf("indicator #%d: got %q, want %q", i, report.Indicators[i].Note, note)
		}
	}

	// no vendor reached the vote threshold
	if len(report.VendorGuesses) != 0 {
		t.Errorf("got guesses %v, want none", report.VendorGuesses)
	}
	if report.Confidence != 0.75 || !report.LikelyWAF {
		t.Errorf("got confidence %v, likely %v", report.Confidence, report.LikelyWAF)
	}
}

func TestAnalyzeVendorAssistedVerdict(t *testing.T) {
	ob := newObservation(map[string]string{
		"x-iinfo":    "12-345",
		"set-cookie": "incap_ses_123=abc; path=/",
	}, nil)

	report, err := Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	if report.Confidence != 0.45 || !report.LikelyWAF {
		t.Errorf("got confidence %v, likely %v, want 0.45, true", report.Confidence, report.LikelyWAF)
	}
	if len(report.VendorGuesses) != 1 || report.VendorGuesses[0] != imperva {
		t.Errorf("got guesses %v", report.VendorGuesses)
	}

	want := "Vendor hints: Imperva/Incapsula (0.45); Headers: x-iinfo; Cookies: incap_ses"
	if report.Rationale != want {
		t.Errorf("got rationale %q, want %q", report.Rationale, want)
	}
}

func TestAnalyzeBelowThresholdWithoutVendor(t *testing.T) {
	ob := newObservation(map[string]string{"x-firewall": "on"}, strPtr("Access   Denied"))

	report, err := Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	if report.Confidence != 0.5 || report.LikelyWAF {
		t.Errorf("got confidence %v, likely %v, want 0.5, false", report.Confidence, report.LikelyWAF)
	}

	want := "Headers: x-firewall; Body: Generic access denied"
	if report.Rationale != want {
		t.Errorf("got rationale %q, want %q", report.Rationale, want)
	}
}

func TestAnalyzeGenericHeaderHint(t *testing.T) {
	ob := newObservation(map[string]string{"X-WAF": "F5 BIG-IP"}, nil)

	report, err := Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	if len(report.Indicators) != 2 {
		t.Fatalf("got %d indicators, want 2", len(report.Indicators))
	}
	if report.Indicators[0].Weight != 0.25 || report.Indicators[1].Weight != 0.35 {
		t.Errorf("unexpected weights: %v, %v", report.Indicators[0].Weight, report.Indicators[1].Weight)
	}
	if report.Indicators[1].Note != "Explicit WAF header present" {
		t.Errorf("got note %q", report.Indicators[1].Note)
	}
	if report.Confidence != 0.6 || !report.LikelyWAF {
		t.Errorf("got confidence %v, likely %v, want 0.6, true", report.Confidence, report.LikelyWAF)
	}
	if report.Rationale != "Headers: x-waf" {
		t.Errorf("got rationale %q", report.Rationale)
	}
}

func TestAnalyzeGenericBlockMessage(t *testing.T) {
	for _, body := range []string{"Request Blocked", "request blocked", "REQUEST \t BLOCKED by policy"} {
		report, err := Analyze(newObservation(nil, strPtr(body)))
		if err != nil {
			t.Fatalf("got an error while analysing: %v", err)
		}

		var found *Indicator
		for _, i := range report.Indicators {
			if i.Key == BodyKeyPattern && i.Note == "Generic block message" {
				found = i
			}
		}

		if found == nil {
			t.Errorf("%q: generic block indicator not found: %+v", body, report.Indicators)
			continue
		}
		if found.Weight != 0.35 || found.Value != `request\s+blocked` || found.Source != SourceBody {
			t.Errorf("%q: unexpected indicator %+v", body, *found)
		}

		// the generic pattern is always the last indicator
		if report.Indicators[len(report.Indicators)-1] != found {
			t.Errorf("%q: generic patterns must be matched last", body)
		}
	}
}

func TestAnalyzeVoteIsCapped(t *testing.T) {
	ob := newObservation(map[string]string{
		"server":          "cloudflare",
		"cf-ray":          "1",
		"cf-cache-status": "HIT",
		"set-cookie":      "__cfduid=1",
	}, strPtr("Attention Required! | Cloudflare"))

	report, err := Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	if report.Confidence != 1 {
		t.Errorf("got confidence %v, want 1", report.Confidence)
	}
	if len(report.VendorVotes) != 1 || report.VendorVotes[0].Score != 0.7 {
		t.Errorf("vote must be capped at 0.7, got %+v", report.VendorVotes)
	}
}

func TestAnalyzeLargeBody(t *testing.T) {
	body := strings.Repeat("x", 3*observation.MaxBodyExcerpt) + "Access Denied"

	report, err := Analyze(newObservation(nil, &body))
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	if report.Confidence != 0.25 {
		t.Errorf("got confidence %v, want 0.25", report.Confidence)
	}
	if len(body) != 3*observation.MaxBodyExcerpt+len("Access Denied") {
		t.Errorf("body must not be modified")
	}
}

func TestWildcardHeader(t *testing.T) {
	reg := mustLoad(t, `
vendors:
  - vendor: Custom
    headers:
      - key: x-cf-*
      - key: x-edge-*
        contains: edge
`)
	d := New(reg, nil)

	tests := []struct {
		headers map[string]string
		values  []string
	}{
		{map[string]string{"x-cf-custom": "1"}, []string{"1"}},
		{map[string]string{"X-CF-Custom": "A"}, []string{"a"}},
		{map[string]string{"x-other": "1"}, nil},
		{map[string]string{"x-cf": "1"}, nil},
		{map[string]string{"x-edge-b": "EDGE-1", "x-edge-a": "core"}, []string{"edge-1"}},
		{map[string]string{"x-edge-a": "core"}, nil},
	}

	for _, test := range tests {
		report, err := d.Analyze(newObservation(test.headers, nil))
		if err != nil {
			t.Fatalf("got an error while analysing: %v", err)
		}

		if len(report.Indicators) != len(test.values) {
			t.Errorf("%v: got %d indicators, want %d", test.headers, len(report.Indicators), len(test.values))
			continue
		}
		for i, v := range test.values {
			if report.Indicators[i].Value != v {
				t.Errorf("%v: got value %q, want %q", test.headers, report.Indicators[i].Value, v)
			}
		}
	}
}

func TestVendorRankingIsStable(t *testing.T) {
	registry := `
vendors:
  - vendor: A
    headers: [{key: x-a}, {key: x-a2}]
  - vendor: B
    headers: [{key: x-b}, {key: x-b2}]
  - vendor: C
    headers: [{key: x-c}, {key: x-c2}]
    cookies: [c_session]
`
	ob := newObservation(map[string]string{
		"x-a": "1", "x-a2": "1",
		"x-b": "1", "x-b2": "1",
		"x-c": "1", "x-c2": "1",
		"set-cookie": "c_session=1",
	}, nil)

	report, err := New(mustLoad(t, registry), nil).Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	want := []string{"C", "A", "B"}
	if strings.Join(report.VendorGuesses, ",") != strings.Join(want, ",") {
		t.Errorf("got guesses %v, want %v", report.VendorGuesses, want)
	}

	wantRationale := "Vendor hints: C (0.70), A (0.50), B (0.50); Headers: x-a, x-a2, x-b, x-b2, x-c, x-c2; Cookies: c_session"
	if report.Rationale != wantRationale {
		t.Errorf("got rationale %q, want %q", report.Rationale, wantRationale)
	}
}

func TestVotesOfSameVendorAreSummed(t *testing.T) {
	registry := `
vendors:
  - vendor: A
    headers: [{key: x-a}, {key: x-a2}]
  - vendor: A
    cookies: [a1, a2]
`
	ob := newObservation(map[string]string{"x-a": "1", "x-a2": "1", "set-cookie": "a1=1; a2=2"}, nil)

	report, err := New(mustLoad(t, registry), nil).Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	if len(report.VendorVotes) != 1 || report.VendorVotes[0].Score < 0.89 || report.VendorVotes[0].Score > 0.91 {
		t.Errorf("got votes %+v, want A with 0.9", report.VendorVotes)
	}
}

func TestGenericHintKinds(t *testing.T) {
	registry := `
vendors:
  - vendor: A
    headers: [{key: x-a}]
generic:
  - {kind: regex, value: 'denied', weight: 0.1, note: regex}
  - {kind: body, value: 'Blocked By', weight: 0.1, note: body}
  - {kind: cookie, value: 'WAF_ID', weight: 0.1, note: cookie}
  - {kind: header, key: x-shield, value: 'On', weight: 0.1, note: header}
`
	ob := newObservation(map[string]string{
		"x-shield":   "ON",
		"set-cookie": "waf_id=1",
	}, strPtr("blocked by policy, access DENIED"))

	report, err := New(mustLoad(t, registry), nil).Analyze(ob)
	if err != nil {
		t.Fatalf("got an error while analysing: %v", err)
	}

	// non-regex hints keep their order, regex hints come last
	wantSources := []string{"body", "cookie", "header:x-shield", "body"}
	wantNotes := []string{"body", "cookie", "header", "regex"}
	if len(report.Indicators) != len(wantSources) {
		t.Fatalf("got %d indicators, want %d", len(report.Indicators), len(wantSources))
	}
	for i := range wantSources {
		if report.Indicators[i].Source != wantSources[i] || report.Indicators[i].Note != wantNotes[i] {
			t.Errorf("indicator #%d: got %+v", i, *report.Indicators[i])
		}
	}
	if report.Confidence != 0.4 {
		t.Errorf("got confidence %v, want 0.4", report.Confidence)
	}
}

func TestAnalyzeConcurrently(t *testing.T) {
	ob := newObservation(map[string]string{"server": "cloudflare", "cf-ray": "1"}, strPtr("Request blocked"))

	var wg sync.WaitGroup
	results := make([]float64, 32)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report, err := Analyze(ob)
			if err != nil {
				return
			}
			results[i] = report.Confidence
		}(i)
	}
	wg.Wait()

	for i, c := range results {
		if c != results[0] || c == 0 {
			t.Errorf("result #%d: got %v, want %v", i, c, results[0])
		}
	}
}
