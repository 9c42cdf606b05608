package scanner

import "context"

// There is no SIGUSR1 on Windows, the status is only shown by the progress bar.
func (s *Scanner) statusSignalHandler(_ context.Context, _ *uint64, _ int) (func(), error) {
	return func() {}, nil
}
