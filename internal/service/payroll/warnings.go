package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

func noSalaryStructureWarning(emp employee.Employee, asOf time.Time) payroll.PayrunWarning {
	return payroll.PayrunWarning{
		Code:       payroll.WarningNoSalaryStructure,
		EmployeeID: emp.ID,
		Message:    fmt.Sprintf("Employee %s (%s) has no salary structure as of %s", emp.FullName, emp.EmployeeCode, asOf.Format("2006-01-02")),
	}
}

// payslipWarnings derives warnings from computed payslips without recalculating them.
func payslipWarnings(payslips []payroll.Payslip) []payroll.PayrunWarning {
	var warnings []payroll.PayrunWarning
	for _, p := range payslips {
		if p.BankAccount == nil || *p.BankAccount == "" {
			warnings = append(warnings, payroll.PayrunWarning{
				Code:       payroll.WarningMissingBank,
				EmployeeID: p.EmployeeID,
				Message:    fmt.Sprintf("Employee %s (%s) has no bank account details", p.EmployeeName, p.EmployeeCode),
			})
		}
		switch {
		case p.NetSalary.IsZero():
			warnings = append(warnings, payroll.PayrunWarning{
				Code:       payroll.WarningZeroNetPay,
				EmployeeID: p.EmployeeID,
				Message:    fmt.Sprintf("Employee %s (%s) has zero net pay", p.EmployeeName, p.EmployeeCode),
			})
		case p.NetSalary.IsNegative():
			warnings = append(warnings, payroll.PayrunWarning{
				Code:       payroll.WarningNegativeNetPay,
				EmployeeID: p.EmployeeID,
				Message:    fmt.Sprintf("Employee %s (%s) has negative net pay %s", p.EmployeeName, p.EmployeeCode, p.NetSalary.StringFixed(2)),
			})
		}
	}
	return warnings
}

// rederiveWarnings keeps the warnings only processing can produce and replaces
// the payslip-derived ones.
func rederiveWarnings(current []payroll.PayrunWarning, payslips []payroll.Payslip) []payroll.PayrunWarning {
	warnings := make([]payroll.PayrunWarning, 0, len(current))
	for _, w := range current {
		if w.Code == payroll.WarningNoSalaryStructure {
			warnings = append(warnings, w)
		}
	}
	return append(warnings, payslipWarnings(payslips)...)
}

// aggregate recomputes payrun totals from the full payslip set.
func aggregate(payslips []payroll.Payslip) payroll.PayrunTotals {
	totals := payroll.PayrunTotals{
		EmployeeCount:             len(payslips),
		TotalGrossWage:            decimal.Zero,
		TotalDeductions:           decimal.Zero,
		TotalNetWage:              decimal.Zero,
		TotalEmployerContribution: decimal.Zero,
	}
	for _, p := range payslips {
		totals.TotalGrossWage = totals.TotalGrossWage.Add(p.GrossSalary)
		totals.TotalDeductions = totals.TotalDeductions.Add(p.TotalDeductions)
		totals.TotalNetWage = totals.TotalNetWage.Add(p.NetSalary)
		totals.TotalEmployerContribution = totals.TotalEmployerContribution.Add(p.PFEmployer)
	}
	return totals
}

func applyTotals(run *payroll.Payrun, totals payroll.PayrunTotals) {
	run.EmployeeCount = totals.EmployeeCount
	run.TotalGrossWage = totals.TotalGrossWage
	run.TotalDeductions = totals.TotalDeductions
	run.TotalNetWage = totals.TotalNetWage
	run.TotalEmployerContribution = totals.TotalEmployerContribution
}
