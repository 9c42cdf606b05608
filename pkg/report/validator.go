package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	versionRegex = regexp.MustCompile(`^(v\d+\.\d+\.\d+(\-\d+\-g[a-f0-9]{7})?)$`)
	fpRegex      = regexp.MustCompile(`^[a-f0-9]{64}$`)
	suffixRegex  = regexp.MustCompile(`^(likely|unlikely|error)$`)
)

var customValidators = map[string]validator.Func{
	"wp_version": validateVersion,
	"fp":         validateFp,
	"verdict":    validateVerdict,
	"css_suffix": validateCssSuffix,
}

func validateVersion(fl validator.FieldLevel) bool {
	version := fl.Field().String()

	// skip validation if empty or 'unknown' version
	if version == "" || version == "unknown" {
		return true
	}

	return versionRegex.MatchString(version)
}

func validateFp(fl validator.FieldLevel) bool {
	return fpRegex.MatchString(fl.Field().String())
}

func validateVerdict(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case VerdictLikely, VerdictUnlikely, VerdictError:
		return true
	}

	return false
}

func validateCssSuffix(fl validator.FieldLevel) bool {
	return suffixRegex.MatchString(fl.Field().String())
}

// InvalidField is a report data field that failed validation.
type InvalidField struct {
	Field string
	Rule  string
	Value any
}

// ReportDataError lists every invalid field of the report data.
type ReportDataError struct {
	Invalid []InvalidField
}

var _ error = (*ReportDataError)(nil)

func newReportDataError(errs validator.ValidationErrors) *ReportDataError {
	e := &ReportDataError{}
	for _, fe := range errs {
		e.Invalid = append(e.Invalid, InvalidField{Field: fe.Namespace(), Rule: fe.Tag(), Value: fe.Value()})
	}

	return e
}

func (e *ReportDataError) Error() string {
	msgs := make([]string, len(e.Invalid))
	for i, f := range e.Invalid {
		msgs[i] = fmt.Sprintf("%s: failed on the '%s' rule, bad value: '%v'", f.Field, f.Rule, f.Value)
	}

	return "found invalid values in the report data: " + strings.Join(msgs, "; ")
}

// Fields returns the namespaces of the invalid fields.
func (e *ReportDataError) Fields() []string {
	fields := make([]string, len(e.Invalid))
	for i, f := range e.Invalid {
		fields[i] = f.Field
	}

	return fields
}

// ValidateReportData validates report data
func ValidateReportData(reportData *HtmlReport) error {
	validate := validator.New()
	for tag, validatorFunc := range customValidators {
		err := validate.RegisterValidation(tag, validatorFunc)
		if err != nil {
			return errors.Wrap(err, "couldn't build validator")
		}
	}

	result := &ReportDataError{}

	err := validate.Struct(reportData)
	if err != nil {
		var validatorErr validator.ValidationErrors
		if !errors.As(err, &validatorErr) {
			return errors.Wrap(err, "couldn't validate report data")
		}
		result = newReportDataError(validatorErr)
	}

	// every chart bar needs a vendor label
	chart := reportData.VotesChartData
	if len(chart.Vendors) != len(chart.Scores) {
		result.Invalid = append(result.Invalid, InvalidField{
			Field: "HtmlReport.VotesChartData.Scores",
			Rule:  "len_vendors",
			Value: len(chart.Scores),
		})
	}

	if len(result.Invalid) > 0 {
		return result
	}

	return nil
}
