package report

import "fmt"

// FormatWeight formats a weight or a confidence with two decimals.
func FormatWeight(w float64) string {
	return fmt.Sprintf("%.2f", w)
}

// VerdictSuffix returns the CSS class suffix used for a verdict.
func VerdictSuffix(verdict string) string {
	switch verdict {
	case VerdictLikely:
		return "likely"
	case VerdictUnlikely:
		return "unlikely"
	default:
		return "error"
	}
}
