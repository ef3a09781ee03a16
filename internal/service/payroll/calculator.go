package payroll

import (
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// DefaultProfessionalTaxThreshold is the gross salary above which professional tax applies.
var DefaultProfessionalTaxThreshold = decimal.NewFromInt(15000)

// CalculationRules - statutory settings shared by every payslip
type CalculationRules struct {
	ProfessionalTaxThreshold decimal.Decimal
}

// ProrationFactor returns workedDays / totalWorkingDays clamped to [0, 1].
func ProrationFactor(workedDays decimal.Decimal, totalWorkingDays int) decimal.Decimal {
	if totalWorkingDays <= 0 || !workedDays.IsPositive() {
		return decimal.Zero
	}
	factor := workedDays.Div(decimal.NewFromInt(int64(totalWorkingDays)))
	if factor.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return factor
}

// Calculate computes a payslip's earnings and statutory deductions. Basic, HRA,
// performance bonus and LTA are pro-rated by attendance; standard and fixed
// allowances are paid in full. TDS and other deductions start at zero.
func Calculate(s payroll.SalaryStructure, summary payroll.AttendanceSummary, month, year int, rules CalculationRules) payroll.PayslipAmounts {
	totalWorkingDays := WorkingDaysInMonth(month, year, s.Percentages.WorkingDaysPerWeek)
	factor := ProrationFactor(summary.WorkedDays, totalWorkingDays)

	earnings := payroll.Components{
		BasicSalary:       round2(s.Components.BasicSalary.Mul(factor)),
		HRA:               round2(s.Components.HRA.Mul(factor)),
		StandardAllowance: s.Components.StandardAllowance,
		PerformanceBonus:  round2(s.Components.PerformanceBonus.Mul(factor)),
		LTA:               round2(s.Components.LTA.Mul(factor)),
		FixedAllowance:    s.Components.FixedAllowance,
	}
	gross := earnings.Total()

	pf := percentOf(earnings.BasicSalary, s.Percentages.PFPercentage)

	professionalTax := decimal.Zero
	if gross.GreaterThan(rules.ProfessionalTaxThreshold) {
		professionalTax = round2(s.Percentages.ProfessionalTax)
	}

	amounts := payroll.PayslipAmounts{
		TotalWorkingDays: totalWorkingDays,
		Earnings:         earnings,
		GrossSalary:      gross,
		PFEmployee:       pf,
		PFEmployer:       pf,
		ProfessionalTax:  professionalTax,
	}
	return ApplyDeductions(amounts, decimal.Zero, decimal.Zero)
}

// ApplyDeductions sets the editable deductions and recomputes totals and net pay.
// PFEmployer is an employer cost and is not part of TotalDeductions.
func ApplyDeductions(a payroll.PayslipAmounts, tds, other decimal.Decimal) payroll.PayslipAmounts {
	a.TDSDeduction = round2(tds)
	a.OtherDeductions = round2(other)
	a.TotalDeductions = a.PFEmployee.Add(a.ProfessionalTax).Add(a.TDSDeduction).Add(a.OtherDeductions)
	a.NetSalary = a.GrossSalary.Sub(a.TotalDeductions)
	return a
}
