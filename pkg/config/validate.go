package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/producer"
)

// validate is a singleton validator instance
var validate = validator.New()

// ProducerNames lists every name accepted by producer.name and
// baseline.methods
func ProducerNames() []string {
	return producer.Builtin(producer.Options{AssignmentsDir: "-"}).Names()
}

// Validate checks field ranges and cross-field rules and reports every
// violation at once
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		errs = append(errs, formatValidationErrors(err)...)
	}

	known := ProducerNames()
	if c.Producer.Name != "" && !slices.Contains(known, c.Producer.Name) {
		errs = append(errs, fmt.Errorf("producer.name: unknown producer %q (have %v)", c.Producer.Name, known))
	}
	for _, m := range c.Baseline.Methods {
		if m != "" && !slices.Contains(known, m) {
			errs = append(errs, fmt.Errorf("baseline.methods: unknown producer %q", m))
		}
	}
	if c.Output.Dir == "" && c.Output.S3.Bucket == "" {
		errs = append(errs, errors.New("output: either dir or s3.bucket is required"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func formatValidationErrors(err error) []error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []error{err}
	}

	out := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			out = append(out, fmt.Errorf("%s: field is required", field))
		case "required_if", "required_with":
			out = append(out, fmt.Errorf("%s: field is required when %s is set", field, param))
		case "min":
			out = append(out, fmt.Errorf("%s: must be at least %s", field, param))
		case "max":
			out = append(out, fmt.Errorf("%s: must not exceed %s", field, param))
		case "gt", "lte":
			out = append(out, fmt.Errorf("%s: must be %s %s", field, e.Tag(), param))
		case "gtefield":
			out = append(out, fmt.Errorf("%s: must not be below %s", field, param))
		case "oneof":
			out = append(out, fmt.Errorf("%s: must be one of [%s]", field, param))
		default:
			out = append(out, fmt.Errorf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return out
}
