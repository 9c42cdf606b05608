package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type Config struct {
	// Input settings
	Inputs []string `mapstructure:"input" validate:"required,min=1,dive,required"`
	Format string   `mapstructure:"format" validate:"oneof=auto raw json har"`

	// Analysis settings
	Fingerprints string `mapstructure:"fingerprints"`

	// Performance settings
	Workers    int  `mapstructure:"workers" validate:"min=1,max=256"`
	NoProgress bool `mapstructure:"noProgress"`

	// Report settings
	Output     string `mapstructure:"output" validate:"oneof=text table json"`
	JSON       bool   `mapstructure:"json"`
	ReportFile string `mapstructure:"reportFile"`

	// Other settings
	LogLevel  string `mapstructure:"logLevel"`
	LogFormat string `mapstructure:"logFormat" validate:"oneof=text json"`
	Verbose   bool   `mapstructure:"verbose"`
}

// Validate checks the merged configuration and reports every bad field.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return errors.Wrap(err, "couldn't validate config")
	}

	msgs := make([]string, len(validationErrs))
	for i, fe := range validationErrs {
		msgs[i] = fmt.Sprintf("%s: failed on the '%s' rule, bad value: '%v'", fe.Field(), fe.Tag(), fe.Value())
	}

	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// OutputFormat returns the console output format, taking the --json alias
// into account.
func (c *Config) OutputFormat() string {
	if c.JSON {
		return "json"
	}

	return c.Output
}
