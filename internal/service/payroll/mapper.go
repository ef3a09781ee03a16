package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
)

const dateLayout = "2006-01-02"

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	str := t.Format(time.RFC3339)
	return &str
}

func mapToPayrunResponse(r payroll.Payrun) payroll.PayrunResponse {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []payroll.PayrunWarning{}
	}

	resp := payroll.PayrunResponse{
		ID:                        r.ID,
		Month:                     r.Month,
		Year:                      r.Year,
		Status:                    string(r.Status),
		PayPeriodStart:            r.PayPeriodStart.Format(dateLayout),
		PayPeriodEnd:              r.PayPeriodEnd.Format(dateLayout),
		EmployeeCount:             r.EmployeeCount,
		TotalGrossWage:            r.TotalGrossWage,
		TotalDeductions:           r.TotalDeductions,
		TotalNetWage:              r.TotalNetWage,
		TotalEmployerContribution: r.TotalEmployerContribution,
		Warnings:                  r.WarningMessages(),
		WarningDetails:            warnings,
		ProcessedAt:               formatTime(r.ProcessedAt),
		ValidatedAt:               formatTime(r.ValidatedAt),
		PaidAt:                    formatTime(r.PaidAt),
	}

	if len(r.Payslips) > 0 {
		resp.Payslips = make([]payroll.PayslipResponse, 0, len(r.Payslips))
		for _, p := range r.Payslips {
			resp.Payslips = append(resp.Payslips, mapToPayslipResponse(p))
		}
	}
	return resp
}

func mapToPayslipResponse(p payroll.Payslip) payroll.PayslipResponse {
	return payroll.PayslipResponse{
		ID:                p.ID,
		PayrunID:          p.PayrunID,
		EmployeeID:        p.EmployeeID,
		SalaryStructureID: p.SalaryStructureID,
		EmployeeName:      p.EmployeeName,
		EmployeeCode:      p.EmployeeCode,
		Department:        p.Department,
		Location:          p.Location,
		PAN:               p.PAN,
		UAN:               p.UAN,
		BankAccount:       p.BankAccount,
		DaysInMonth:       p.DaysInMonth,
		TotalWorkingDays:  p.TotalWorkingDays,
		PresentDays:       p.PresentDays,
		AbsentDays:        p.AbsentDays,
		PaidTimeOff:       p.PaidTimeOff,
		WorkedDays:        p.WorkedDays,
		BasicSalary:       p.Earnings.BasicSalary,
		HRA:               p.Earnings.HRA,
		StandardAllowance: p.Earnings.StandardAllowance,
		PerformanceBonus:  p.Earnings.PerformanceBonus,
		LTA:               p.Earnings.LTA,
		FixedAllowance:    p.Earnings.FixedAllowance,
		GrossSalary:       p.GrossSalary,
		PFEmployee:        p.PFEmployee,
		PFEmployer:        p.PFEmployer,
		ProfessionalTax:   p.ProfessionalTax,
		TDSDeduction:      p.TDSDeduction,
		OtherDeductions:   p.OtherDeductions,
		TotalDeductions:   p.TotalDeductions,
		NetSalary:         p.NetSalary,
		IsEditable:        p.IsEditable,
	}
}

func mapToStructureResponse(s payroll.SalaryStructure) payroll.SalaryStructureResponse {
	return payroll.SalaryStructureResponse{
		ID:                         s.ID,
		EmployeeID:                 s.EmployeeID,
		EffectiveFrom:              s.EffectiveFrom.Format(dateLayout),
		MonthlyWage:                s.MonthlyWage,
		BasicPercentage:            s.Percentages.BasicPercentage,
		HRAPercentage:              s.Percentages.HRAPercentage,
		PerformanceBonusPercentage: s.Percentages.PerformanceBonusPercentage,
		LTAPercentage:              s.Percentages.LTAPercentage,
		PFPercentage:               s.Percentages.PFPercentage,
		ProfessionalTax:            s.Percentages.ProfessionalTax,
		WorkingDaysPerWeek:         s.Percentages.WorkingDaysPerWeek,
		WorkingHoursPerDay:         s.Percentages.WorkingHoursPerDay,
		BasicSalary:                s.Components.BasicSalary,
		HRA:                        s.Components.HRA,
		StandardAllowance:          s.Components.StandardAllowance,
		PerformanceBonus:           s.Components.PerformanceBonus,
		LTA:                        s.Components.LTA,
		FixedAllowance:             s.Components.FixedAllowance,
	}
}

func registerRow(p payroll.Payslip) payroll.PayrunRegisterRow {
	return payroll.PayrunRegisterRow{
		EmployeeCode:    p.EmployeeCode,
		EmployeeName:    p.EmployeeName,
		Department:      deref(p.Department),
		BankAccount:     deref(p.BankAccount),
		WorkedDays:      p.WorkedDays.StringFixed(1),
		GrossSalary:     p.GrossSalary.StringFixed(2),
		PFEmployee:      p.PFEmployee.StringFixed(2),
		ProfessionalTax: p.ProfessionalTax.StringFixed(2),
		TDSDeduction:    p.TDSDeduction.StringFixed(2),
		OtherDeductions: p.OtherDeductions.StringFixed(2),
		TotalDeductions: p.TotalDeductions.StringFixed(2),
		NetSalary:       p.NetSalary.StringFixed(2),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
