//go:build !windows

package scanner

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
)

// statusSignalHandler logs the batch progress every time the process gets
// SIGUSR1.
func (s *Scanner) statusSignalHandler(ctx context.Context, processed *uint64, total int) (func(), error) {
	userSignal := make(chan os.Signal, 1)
	signal.Notify(userSignal, syscall.SIGUSR1)

	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-userSignal:
				s.logger.
					WithFields(logrus.Fields{
						"processed": atomic.LoadUint64(processed),
						"total":     total,
					}).Info("Analysis status")

			case <-done:
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		signal.Stop(userSignal)
		close(done)
	}, nil
}
