package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallarm/wafpresence/internal/config"
	"github.com/wallarm/wafpresence/internal/detector"
	"github.com/wallarm/wafpresence/internal/observation"
	"github.com/wallarm/wafpresence/internal/platform"
)

// Result is the outcome of analysing one capture file. Exactly one of
// Report and Err is set.
type Result struct {
	Input  string
	Report *detector.Report
	Err    error
}

type Scanner struct {
	logger   *logrus.Logger
	cfg      *config.Config
	detector *detector.Detector
}

func New(logger *logrus.Logger, cfg *config.Config, d *detector.Detector) *Scanner {
	return &Scanner{
		logger:   logger,
		cfg:      cfg,
		detector: d,
	}
}

// Run analyses the inputs with a pool of cfg.Workers workers. Results are
// returned in input order. Failures of single inputs are stored in their
// results; the returned error is set only if the context was canceled.
func (s *Scanner) Run(ctx context.Context, inputs []string) ([]*Result, error) {
	results := make([]*Result, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	gn := min(s.cfg.Workers, len(inputs))
	if gn < 1 {
		gn = 1
	}

	var processed uint64

	s.logger.WithFields(logrus.Fields{
		"inputs":  len(inputs),
		"workers": gn,
	}).Info("Analysis started")
	defer s.logger.Info("Analysis finished")

	start := time.Now()
	defer func() {
		s.logger.WithField("duration", time.Since(start).String()).Debug("Analysis time")
	}()

	stopStatus, err := s.statusSignalHandler(ctx, &processed, len(inputs))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't start status handler")
	}
	defer stopStatus()

	bar := platform.NewProgressBar(len(inputs), !s.cfg.NoProgress && len(inputs) > 1)
	defer bar.Finish()

	var wg sync.WaitGroup
	wg.Add(gn)

	workChan := make(chan int, gn)

	for e := 0; e < gn; e++ {
		go func(ctx context.Context) {
			defer wg.Done()
			for {
				select {
				case i, ok := <-workChan:
					if !ok {
						return
					}

					results[i] = s.analyze(inputs[i])
					atomic.AddUint64(&processed, 1)
					bar.Add(1)

				case <-ctx.Done():
					return
				}
			}
		}(ctx)
	}

	go func() {
		defer close(workChan)
		for i := range inputs {
			select {
			case workChan <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *Scanner) analyze(input string) *Result {
	logger := s.logger.WithField("input", input)

	ob, err := observation.ReadFile(logger, input, s.cfg.Format)
	if err != nil {
		logger.WithError(err).Debug("couldn't read capture")
		return &Result{Input: input, Err: err}
	}

	report, err := s.detector.Analyze(ob)
	if err != nil {
		return &Result{Input: input, Err: errors.Wrapf(err, "couldn't analyse %s", input)}
	}

	return &Result{Input: input, Report: report}
}

// Failures collects the errors of all failed results.
func Failures(results []*Result) error {
	var result error

	for _, r := range results {
		if r != nil && r.Err != nil {
			result = multierror.Append(result, r.Err)
		}
	}

	return result
}
