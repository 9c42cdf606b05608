package detector

import (
	"fmt"
	"sort"
	"strings"
)

// NoIndicatorsRationale is the rationale of a report without evidence.
const NoIndicatorsRationale = "No strong indicators found."

// rationaleVendors is the number of vendors mentioned in the rationale.
const rationaleVendors = 3

// Report is the result of analysing one observation.
type Report struct {
	LikelyWAF bool
	// Confidence is rounded to two decimals.
	Confidence    float64
	Indicators    []*Indicator
	VendorGuesses []string
	// VendorVotes is sorted like VendorGuesses.
	VendorVotes []*VendorVote
	Rationale   string
}

func assemble(indicators []*Indicator, ranked []*VendorVote, confidence float64, likelyWAF bool) *Report {
	guesses := make([]string, len(ranked))
	for i, v := range ranked {
		guesses[i] = v.Vendor
	}

	if indicators == nil {
		indicators = []*Indicator{}
	}

	return &Report{
		LikelyWAF:     likelyWAF,
		Confidence:    round2(confidence),
		Indicators:    indicators,
		VendorGuesses: guesses,
		VendorVotes:   ranked,
		Rationale:     rationale(indicators, ranked),
	}
}

func rationale(indicators []*Indicator, ranked []*VendorVote) string {
	var reasons []string

	if len(ranked) > 0 {
		top := ranked[:min(len(ranked), rationaleVendors)]
		hints := make([]string, len(top))
		for i, v := range top {
			hints[i] = fmt.Sprintf("%s (%.2f)", v.Vendor, v.Score)
		}
		reasons = append(reasons, "Vendor hints: "+strings.Join(hints, ", "))
	}

	var headerKeys, cookieKeys, bodyNotes []string
	for _, i := range indicators {
		switch {
		case i.IsHeader():
			headerKeys = append(headerKeys, i.Key)
		case i.IsCookie():
			cookieKeys = append(cookieKeys, i.Key)
		case i.IsBody():
			bodyNotes = append(bodyNotes, i.Note)
		}
	}

	if s := uniqueSorted(headerKeys); s != "" {
		reasons = append(reasons, "Headers: "+s)
	}
	if s := uniqueSorted(cookieKeys); s != "" {
		reasons = append(reasons, "Cookies: "+s)
	}
	if s := uniqueSorted(bodyNotes); s != "" {
		reasons = append(reasons, "Body: "+s)
	}

	if len(reasons) == 0 {
		return NoIndicatorsRationale
	}

	return strings.Join(reasons, "; ")
}

func uniqueSorted(values []string) string {
	set := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))

	for _, v := range values {
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		unique = append(unique, v)
	}
	sort.Strings(unique)

	return strings.Join(unique, ", ")
}
