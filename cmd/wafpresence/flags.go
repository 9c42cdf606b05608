package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wallarm/wafpresence/internal/config"
	"github.com/wallarm/wafpresence/internal/observation"
	"github.com/wallarm/wafpresence/internal/report"
	"github.com/wallarm/wafpresence/internal/version"
)

const (
	textLogFormat = "text"
	jsonLogFormat = "json"
)

var (
	logFormatsSet = map[string]any{
		textLogFormat: nil,
		jsonLogFormat: nil,
	}
	logFormats = slices.Sorted(maps.Keys(logFormatsSet))
)

const (
	analyzeCommand = "analyze"

	defaultConfigPath = "config.yaml"
	defaultWorkers    = 4

	envPrefix = "wafpresence"
)

const cliDescription = `Offline WAF presence checker. Estimates from captured HTTP responses
(raw headers, JSON observations or HAR files) whether a WAF or CDN edge
firewall is in front of a site, and which vendor it likely is. No network
requests are made.

Usage: %s [analyze] [OPTIONS] -i <FILE|DIR> [FILE|DIR...]

Exit codes: 0=no WAF detected, 1=indeterminate/error, 2=WAF likely present

Options:
`

var (
	configPath string
	quiet      bool
	logLevel   logrus.Level
	logFormat  string
)

var usage = func() {
	flag.CommandLine.SetOutput(os.Stdout)
	fmt.Fprintf(os.Stdout, cliDescription, os.Args[0])
	flag.PrintDefaults()
}

// parseFlags parses all CLI flags and returns the positional inputs.
func parseFlags() (positional []string, err error) {
	flag.Usage = usage

	// General parameters
	flag.StringVar(&configPath, "configPath", defaultConfigPath, "Path to the config file")
	flag.BoolVar(&quiet, "quiet", false, "If present, disable logging")
	logLvl := flag.String("logLevel", "warn", "Logging level: panic, fatal, error, warn, info, debug, trace")
	flag.StringVar(&logFormat, "logFormat", textLogFormat, "Set logging format: "+strings.Join(logFormats, ", "))
	flag.BoolP("verbose", "v", false, "Enable verbose (debug) logging")
	showVersion := flag.Bool("version", false, "Show version and exit")

	// Input settings
	flag.StringSliceP("input", "i", nil, "Capture file or directory to analyse, may be repeated")
	format := flag.String("format", observation.AutoFormat, "Input format: "+strings.Join(observation.Formats, ", "))

	// Analysis settings
	flag.String("fingerprints", "", "YAML file with fingerprints replacing the built-in ones")

	// Performance settings
	flag.Int("workers", defaultWorkers, "The number of captures analysed in parallel")
	flag.Bool("noProgress", false, "If present, the progress bar is not shown")

	// Report settings
	output := flag.String("output", report.TextFormat, "Console output format: "+strings.Join(report.OutputFormats, ", "))
	flag.Bool("json", false, "Emit JSON instead of text (same as --output=json)")
	flag.String("reportFile", "", "If set, an HTML report with a vendor votes chart is saved to this file")

	flag.Parse()

	if len(os.Args) == 1 {
		usage()
		os.Exit(exitIndeterminate)
	}

	// show version and exit
	if *showVersion {
		fmt.Fprintf(os.Stderr, "wafpresence %s\n", version.Version)
		os.Exit(exitOK)
	}

	positional, err = splitCommand(flag.Args())
	if err != nil {
		return nil, err
	}

	logrusLogLvl, err := logrus.ParseLevel(*logLvl)
	if err != nil {
		return nil, err
	}
	logLevel = logrusLogLvl

	if err = validateLogFormat(logFormat); err != nil {
		return nil, err
	}

	if err = observation.ValidateFormat(*format); err != nil {
		return nil, err
	}

	if err = report.ValidateOutputFormat(*output); err != nil {
		return nil, err
	}

	return positional, nil
}

// loadConfig loads the config file, if there is one, and merges it with the
// parameters passed via CLI and the environment.
func loadConfig(positional []string) (*config.Config, error) {
	err := viper.BindPFlags(flag.CommandLine)
	if err != nil {
		return nil, err
	}
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if _, err = os.Stat(configPath); err == nil {
		viper.SetConfigFile(configPath)
		if err = viper.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "couldn't read config file")
		}
	} else if flag.CommandLine.Changed("configPath") {
		return nil, errors.Wrapf(err, "couldn't find config file")
	}

	var cfg config.Config
	if err = viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "couldn't decode config")
	}

	cfg.Inputs = append(cfg.Inputs, positional...)

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
