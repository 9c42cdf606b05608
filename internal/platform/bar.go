package platform

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// NewProgressBar returns a bar that counts analysed captures on stderr. A
// disabled bar accepts updates and prints nothing.
func NewProgressBar(total int, enabled bool) *progressbar.ProgressBar {
	if !enabled {
		return progressbar.DefaultSilent(int64(total))
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Analysing captures"),
		progressbar.OptionSetItsString("file"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish())
	return bar
}
