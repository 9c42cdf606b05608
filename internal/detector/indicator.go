package detector

import "strings"

const (
	SourceHeaderPrefix = "header:"
	SourceCookie       = "cookie"
	SourceBody         = "body"

	// Keys of body indicators.
	BodyKeyContains = "contains"
	BodyKeyPattern  = "pattern"
)

// Indicator is a single piece of evidence found in an observation.
type Indicator struct {
	// Source is "header:<key>", "cookie" or "body".
	Source string  `json:"source"`
	Key    string  `json:"key"`
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
	Note   string  `json:"note"`
}

func (i *Indicator) IsHeader() bool {
	return strings.HasPrefix(i.Source, SourceHeaderPrefix)
}

func (i *Indicator) IsCookie() bool {
	return i.Source == SourceCookie
}

func (i *Indicator) IsBody() bool {
	return i.Source == SourceBody
}

// VendorVote is the accumulated vote of one vendor.
type VendorVote struct {
	Vendor string  `json:"vendor"`
	Score  float64 `json:"score"`
}
