// Package detector estimates whether a WAF or CDN edge firewall produced a
// captured HTTP response and which vendor it likely is.
//
// The analysis is an additive heuristic: every header, cookie or body match
// adds its weight to the confidence, and vendor-attributed matches also vote
// for their vendor.
package detector

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallarm/wafpresence/internal/fingerprint"
	"github.com/wallarm/wafpresence/internal/observation"
)

var ErrNilObservation = errors.Wrap(observation.ErrInvalidInput, "observation cannot be nil")

// Detector analyses observations against a fingerprint registry. It holds
// no mutable state and may be used from several goroutines.
type Detector struct {
	registry *fingerprint.Registry
	logger   logrus.FieldLogger
}

// New creates a detector. A nil registry selects the built-in one and a nil
// logger discards log output.
func New(reg *fingerprint.Registry, logger logrus.FieldLogger) *Detector {
	if reg == nil {
		reg = fingerprint.Default()
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	return &Detector{
		registry: reg,
		logger:   logger,
	}
}

// Registry returns the registry used by the detector.
func (d *Detector) Registry() *fingerprint.Registry {
	return d.registry
}

// Analyze matches the observation against the registry and builds a report.
func (d *Detector) Analyze(ob *observation.Observation) (*Report, error) {
	if ob == nil {
		return nil, ErrNilObservation
	}

	d.logger.WithField("url", ob.URL).Debug("starting WAF presence analysis")

	indicators, votes := match(ob, d.registry)
	confidence, likelyWAF, ranked := score(indicators, votes)
	report := assemble(indicators, ranked, confidence, likelyWAF)

	d.logger.WithFields(logrus.Fields{
		"indicators": len(report.Indicators),
		"confidence": report.Confidence,
		"likely_waf": report.LikelyWAF,
	}).Debug("WAF presence analysis finished")

	return report, nil
}

var (
	defaultOnce     sync.Once
	defaultDetector *Detector
)

// Analyze analyses the observation with the built-in registry.
func Analyze(ob *observation.Observation) (*Report, error) {
	defaultOnce.Do(func() {
		defaultDetector = New(nil, nil)
	})

	return defaultDetector.Analyze(ob)
}
