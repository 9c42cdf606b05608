package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/wallarm/wafpresence/internal/detector"
	"github.com/wallarm/wafpresence/internal/scanner"
)

// Exit codes
const (
	exitOK            = 0
	exitIndeterminate = 1
	exitWAFLikely     = 2
)

const likelyConfidence = 0.60

// exitCode maps a report to the process exit code. Confidence is already
// rounded to two decimals.
func exitCode(r *detector.Report) int {
	if r.LikelyWAF && r.Confidence >= likelyConfidence {
		return exitWAFLikely
	}
	if r.Confidence == 0 {
		return exitIndeterminate
	}

	return exitOK
}

// batchExitCode is the highest exit code over all results. A failed input
// counts as indeterminate.
func batchExitCode(results []*scanner.Result) int {
	if len(results) == 0 {
		return exitIndeterminate
	}

	code := exitOK
	for _, r := range results {
		c := exitIndeterminate
		if r.Err == nil {
			c = exitCode(r.Report)
		}
		code = max(code, c)
	}

	return code
}

func isTerminal(f *os.File) bool {
	return terminal.IsTerminal(int(f.Fd()))
}

func validateLogFormat(logFormat string) error {
	if _, ok := logFormatsSet[logFormat]; !ok {
		return fmt.Errorf("invalid log format: %s", logFormat)
	}

	return nil
}

// splitCommand strips the optional "analyze" command from the positional
// arguments and returns the remaining ones as inputs.
func splitCommand(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}

	if args[0] == analyzeCommand {
		return args[1:], nil
	}

	if _, err := os.Stat(args[0]); err != nil {
		return nil, fmt.Errorf("unknown command: %s", args[0])
	}

	return args, nil
}
