package fingerprint

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/wallarm/wafpresence/internal/helpers"
)

//go:embed fingerprints.yaml
var builtinFingerprints []byte

var ErrEmptyRegistry = errors.New("fingerprint registry has no vendor rules")

// Registry is the immutable set of vendor rules and generic hints. It is
// built once and is safe for concurrent use.
type Registry struct {
	Vendors []*Rule `yaml:"vendors" validate:"dive,required"`
	Generic []*Hint `yaml:"generic" validate:"dive,required"`

	hash string
}

// Hash returns the hex SHA-256 of the source the registry was loaded from.
func (r *Registry) Hash() string {
	return r.hash
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in registry. The embedded data is checked by
// tests, so a failure here is a programming error.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := Load(builtinFingerprints)
		if err != nil {
			panic(fmt.Sprintf("built-in fingerprints are invalid: %v", err))
		}
		defaultRegistry = reg
	})

	return defaultRegistry
}

// LoadFile reads and validates a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read fingerprints file")
	}

	reg, err := Load(data)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't load fingerprints from %s", path)
	}

	return reg, nil
}

// Load decodes and validates a registry. All problems found are reported
// at once.
func Load(data []byte) (*Registry, error) {
	var reg Registry

	if err := yaml.UnmarshalStrict(data, &reg); err != nil {
		return nil, errors.Wrap(err, "couldn't decode fingerprints")
	}

	if len(reg.Vendors) == 0 {
		return nil, ErrEmptyRegistry
	}

	if err := validate(&reg); err != nil {
		return nil, err
	}

	reg.hash = helpers.HexOfHash(data)

	return &reg, nil
}

func validate(reg *Registry) error {
	var result error

	err := validator.New().Struct(reg)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return errors.Wrap(err, "couldn't validate fingerprints")
		}

		for _, fe := range validationErrs {
			result = multierror.Append(result,
				fmt.Errorf("%s: failed on the '%s' rule, bad value: '%v'", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}

	for i, hint := range reg.Generic {
		if hint == nil {
			continue
		}

		switch hint.Kind {
		case HeaderContains:
			if hint.Key == "" {
				result = multierror.Append(result, fmt.Errorf("generic[%d]: header hint without key", i))
			}

		case CookieContains, BodyContains:
			if strings.TrimSpace(hint.Value) == "" {
				result = multierror.Append(result, fmt.Errorf("generic[%d]: %s hint without value", i, hint.Kind))
			}

		case BodyRegex:
			if hint.Value == "" {
				result = multierror.Append(result, fmt.Errorf("generic[%d]: regex hint without pattern", i))
				continue
			}

			re, err := regexp.Compile("(?i)" + hint.Value)
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "generic[%d]: bad regexp", i))
				continue
			}
			hint.re = re
		}
	}

	return result
}
