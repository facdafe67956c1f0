package evaluators

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/liamcoop/modelbench/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateExpectation checks exp against the shape the category reads and
// the field rules declared on the model types. It returns nil if exp is usable.
func (r *Registry) ValidateExpectation(category string, exp model.Expectation) error {
	e, err := r.Get(category)
	if err != nil {
		return err
	}
	return validateFor(e, exp)
}

func validateFor(e *Evaluator, exp model.Expectation) error {
	if e.Require != nil {
		if err := e.Require(exp); err != nil {
			return fmt.Errorf("%w for %s: %w", ErrInvalidExpectation, e.Category, err)
		}
	}

	if err := validate.Struct(exp); err != nil {
		return fmt.Errorf("%w for %s: %s", ErrInvalidExpectation, e.Category, describeValidation(err))
	}

	if req := exp.Requirements; req != nil {
		if err := checkBounds("variables", req.MinVariables, req.MaxVariables); err != nil {
			return fmt.Errorf("%w for %s: %w", ErrInvalidExpectation, e.Category, err)
		}
		if err := checkBounds("feedback loops", req.MinFeedback, req.MaxFeedback); err != nil {
			return fmt.Errorf("%w for %s: %w", ErrInvalidExpectation, e.Category, err)
		}
	}

	for _, g := range exp.Groups {
		if g.IsEmpty() {
			return fmt.Errorf("%w for %s: group %q declares no requirements", ErrInvalidExpectation, e.Category, g.Name)
		}
	}

	if q := exp.Quantitative; q != nil {
		for _, s := range q.Stocks {
			if err := checkFlowSpecs(s.Name, "inflow", s.Inflows); err != nil {
				return fmt.Errorf("%w for %s: %w", ErrInvalidExpectation, e.Category, err)
			}
			if err := checkFlowSpecs(s.Name, "outflow", s.Outflows); err != nil {
				return fmt.Errorf("%w for %s: %w", ErrInvalidExpectation, e.Category, err)
			}
		}
	}

	return nil
}

func checkBounds(what string, min, max *int) error {
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("minimum %s %d exceeds maximum %d", what, *min, *max)
	}
	return nil
}

// checkFlowSpecs requires every spec to be exactly one of fixed or rate
func checkFlowSpecs(stock, direction string, specs []model.FlowSpec) error {
	for i, spec := range specs {
		switch {
		case spec.Fixed == nil && spec.Rate == nil:
			return fmt.Errorf("%s %d of stock %q needs fixed or rate", direction, i, stock)
		case spec.Fixed != nil && spec.Rate != nil:
			return fmt.Errorf("%s %d of stock %q sets both fixed and rate", direction, i, stock)
		}
	}
	return nil
}

// describeValidation flattens validator errors into one line
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
