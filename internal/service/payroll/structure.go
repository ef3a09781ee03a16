package payroll

import (
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percentOf returns round2(base * pct / 100).
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return round2(base.Mul(pct).Div(hundred))
}

// DeriveComponents splits monthlyWage into the six earning components.
// FixedAllowance is the balancing remainder, so the components always sum to
// monthlyWage exactly.
func DeriveComponents(monthlyWage decimal.Decimal, p payroll.StructurePercentages) (payroll.Components, error) {
	if errs := validatePercentages(monthlyWage, p); len(errs) > 0 {
		return payroll.Components{}, &payroll.StructureError{Errs: errs}
	}

	c := payroll.Components{}
	c.BasicSalary = percentOf(monthlyWage, p.BasicPercentage)
	c.HRA = percentOf(c.BasicSalary, p.HRAPercentage)
	c.StandardAllowance = round2(p.StandardAllowance)
	c.PerformanceBonus = percentOf(c.BasicSalary, p.PerformanceBonusPercentage)
	c.LTA = percentOf(c.BasicSalary, p.LTAPercentage)

	allocated := c.BasicSalary.Add(c.HRA).Add(c.StandardAllowance).Add(c.PerformanceBonus).Add(c.LTA)
	c.FixedAllowance = round2(monthlyWage).Sub(allocated)
	if c.FixedAllowance.IsNegative() {
		return payroll.Components{}, &payroll.StructureError{Errs: validator.ValidationErrors{{
			Field:   "monthly_wage",
			Message: "is too low for the configured percentages, fixed allowance would be " + c.FixedAllowance.StringFixed(2),
		}}}
	}

	return c, nil
}

func validatePercentages(monthlyWage decimal.Decimal, p payroll.StructurePercentages) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if !monthlyWage.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "monthly_wage", Message: "must be greater than 0"})
	}
	if !p.BasicPercentage.IsPositive() || p.BasicPercentage.GreaterThan(hundred) {
		errs = append(errs, validator.ValidationError{Field: "basic_percentage", Message: "must be greater than 0 and at most 100"})
	}

	percentages := []struct {
		field string
		value decimal.Decimal
	}{
		{"hra_percentage", p.HRAPercentage},
		{"performance_bonus_percentage", p.PerformanceBonusPercentage},
		{"lta_percentage", p.LTAPercentage},
		{"pf_percentage", p.PFPercentage},
	}
	for _, pct := range percentages {
		if pct.value.IsNegative() || pct.value.GreaterThan(hundred) {
			errs = append(errs, validator.ValidationError{Field: pct.field, Message: "must be between 0 and 100"})
		}
	}

	if p.StandardAllowance.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "standard_allowance", Message: "must be non-negative"})
	}
	if p.ProfessionalTax.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "professional_tax", Message: "must be non-negative"})
	}
	if p.WorkingDaysPerWeek < 1 || p.WorkingDaysPerWeek > 7 {
		errs = append(errs, validator.ValidationError{Field: "working_days_per_week", Message: "must be between 1 and 7"})
	}
	if p.WorkingHoursPerDay < 1 || p.WorkingHoursPerDay > 24 {
		errs = append(errs, validator.ValidationError{Field: "working_hours_per_day", Message: "must be between 1 and 24"})
	}

	return errs
}
