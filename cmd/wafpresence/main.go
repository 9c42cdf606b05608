package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wallarm/wafpresence/internal/config"
	"github.com/wallarm/wafpresence/internal/detector"
	"github.com/wallarm/wafpresence/internal/fingerprint"
	"github.com/wallarm/wafpresence/internal/helpers"
	"github.com/wallarm/wafpresence/internal/report"
	"github.com/wallarm/wafpresence/internal/scanner"
	"github.com/wallarm/wafpresence/internal/version"
)

func main() {
	logger := logrus.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-shutdown
		logger.WithField("signal", sig).Info("analysis canceled")
		cancel()
	}()

	positional, err := parseFlags()
	if err != nil {
		logger.WithError(err).Error("couldn't parse flags")
		os.Exit(exitIndeterminate)
	}

	logger.SetLevel(logLevel)
	if logFormat == jsonLogFormat {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if quiet {
		logger.SetOutput(io.Discard)
	}

	cfg, err := loadConfig(positional)
	if err != nil {
		logger.WithError(err).Error("couldn't load config")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitIndeterminate)
	}

	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Debug("Verbose logging enabled")
	}

	if quiet || !isTerminal(os.Stderr) {
		cfg.NoProgress = true
	}

	code, err := run(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("caught error in main function")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitIndeterminate)
	}

	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (int, error) {
	logger.WithField("version", version.Version).Info("WAF presence checker started")

	reg := fingerprint.Default()
	if cfg.Fingerprints != "" {
		var err error

		reg, err = fingerprint.LoadFile(cfg.Fingerprints)
		if err != nil {
			return exitIndeterminate, errors.Wrap(err, "couldn't load fingerprints")
		}
	}

	logger.WithFields(logrus.Fields{
		"fp":      reg.Hash(),
		"vendors": len(reg.Vendors),
		"generic": len(reg.Generic),
	}).Info("Fingerprints loaded")

	inputs, err := helpers.ExpandInputs(cfg.Inputs)
	if err != nil {
		return exitIndeterminate, errors.Wrap(err, "couldn't collect inputs")
	}

	s := scanner.New(logger, cfg, detector.New(reg, logger))

	results, err := s.Run(ctx, inputs)
	if err != nil {
		return exitIndeterminate, errors.Wrap(err, "analysis interrupted")
	}

	// a single failed input is reported as an error, like a failed run
	if len(results) == 1 && results[0].Err != nil {
		return exitIndeterminate, results[0].Err
	}

	if err = scanner.Failures(results); err != nil {
		logger.WithError(err).Error("couldn't analyse some captures")
	}

	err = report.RenderConsoleReport(os.Stdout, results, cfg.OutputFormat())
	if err != nil {
		return exitIndeterminate, errors.Wrap(err, "couldn't print report")
	}

	if cfg.ReportFile != "" {
		err = report.ExportHTMLReport(results, cfg.ReportFile, reg.Hash(), time.Now())
		if err != nil {
			return exitIndeterminate, errors.Wrap(err, "couldn't export HTML report")
		}

		logger.WithField("file", cfg.ReportFile).Info("HTML report saved")
	}

	code := batchExitCode(results)
	logger.WithField("code", code).Debug("Exit code")

	return code, nil
}
