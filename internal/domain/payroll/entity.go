package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// StructurePercentages - configurable parameters of a salary structure
type StructurePercentages struct {
	BasicPercentage            decimal.Decimal // of monthly wage
	HRAPercentage              decimal.Decimal // of basic
	StandardAllowance          decimal.Decimal // fixed amount
	PerformanceBonusPercentage decimal.Decimal // of basic
	LTAPercentage              decimal.Decimal // of basic
	PFPercentage               decimal.Decimal // of prorated basic
	ProfessionalTax            decimal.Decimal // flat amount
	WorkingDaysPerWeek         int
	WorkingHoursPerDay         int
}

// DefaultPercentages returns the statutory defaults.
func DefaultPercentages() StructurePercentages {
	return StructurePercentages{
		BasicPercentage:            decimal.NewFromInt(50),
		HRAPercentage:              decimal.NewFromInt(50),
		StandardAllowance:          decimal.NewFromInt(4167),
		PerformanceBonusPercentage: decimal.RequireFromString("8.33"),
		LTAPercentage:              decimal.RequireFromString("8.33"),
		PFPercentage:               decimal.NewFromInt(12),
		ProfessionalTax:            decimal.NewFromInt(200),
		WorkingDaysPerWeek:         5,
		WorkingHoursPerDay:         8,
	}
}

// Components - earning components derived from a monthly wage
type Components struct {
	BasicSalary       decimal.Decimal
	HRA               decimal.Decimal
	StandardAllowance decimal.Decimal
	PerformanceBonus  decimal.Decimal
	LTA               decimal.Decimal
	FixedAllowance    decimal.Decimal
}

// Total sums all six components.
func (c Components) Total() decimal.Decimal {
	return c.BasicSalary.Add(c.HRA).Add(c.StandardAllowance).
		Add(c.PerformanceBonus).Add(c.LTA).Add(c.FixedAllowance)
}

// SalaryStructure - one employee's wage split, versioned by EffectiveFrom
type SalaryStructure struct {
	ID            string
	EmployeeID    string
	EffectiveFrom time.Time
	MonthlyWage   decimal.Decimal
	Percentages   StructurePercentages
	Components    Components
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PayrunStatus enum
type PayrunStatus string

const (
	PayrunStatusDraft      PayrunStatus = "DRAFT"
	PayrunStatusProcessing PayrunStatus = "PROCESSING"
	PayrunStatusProcessed  PayrunStatus = "PROCESSED"
	PayrunStatusValidated  PayrunStatus = "VALIDATED"
	PayrunStatusPaid       PayrunStatus = "PAID"
)

func (s PayrunStatus) IsValid() bool {
	switch s {
	case PayrunStatusDraft, PayrunStatusProcessing, PayrunStatusProcessed, PayrunStatusValidated, PayrunStatusPaid:
		return true
	}
	return false
}

// Deletable reports whether a payrun in this state may be deleted.
func (s PayrunStatus) Deletable() bool {
	return s == PayrunStatusDraft || s == PayrunStatusProcessed
}

// WarningCode enum
type WarningCode string

const (
	WarningNoSalaryStructure WarningCode = "no_salary_structure"
	WarningMissingBank       WarningCode = "missing_bank_account"
	WarningZeroNetPay        WarningCode = "zero_net_pay"
	WarningNegativeNetPay    WarningCode = "negative_net_pay"
)

// PayrunWarning - a non-fatal problem found while processing or validating
type PayrunWarning struct {
	Code       WarningCode `json:"code"`
	EmployeeID string      `json:"employee_id,omitempty"`
	Message    string      `json:"message"`
}

// Payrun - one month's payroll cycle
type Payrun struct {
	ID                        string
	Month                     int
	Year                      int
	Status                    PayrunStatus
	PayPeriodStart            time.Time
	PayPeriodEnd              time.Time
	EmployeeCount             int
	TotalGrossWage            decimal.Decimal
	TotalDeductions           decimal.Decimal
	TotalNetWage              decimal.Decimal
	TotalEmployerContribution decimal.Decimal
	Warnings                  []PayrunWarning
	Version                   int
	ProcessedAt               *time.Time
	ValidatedAt               *time.Time
	PaidAt                    *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time

	// Joined
	Payslips []Payslip
}

// WarningMessages returns the human-readable warning list.
func (p Payrun) WarningMessages() []string {
	msgs := make([]string, 0, len(p.Warnings))
	for _, w := range p.Warnings {
		msgs = append(msgs, w.Message)
	}
	return msgs
}

// PayPeriod returns the first and last calendar day of month/year.
func PayPeriod(month, year int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// EmployeeSnapshot - employee fields copied onto a payslip at calculation time
type EmployeeSnapshot struct {
	EmployeeName string
	EmployeeCode string
	Department   *string
	Location     *string
	PAN          *string
	UAN          *string
	BankAccount  *string
}

// AttendanceSummary - one employee's attendance for one month
type AttendanceSummary struct {
	DaysInMonth int
	PresentDays decimal.Decimal
	AbsentDays  decimal.Decimal
	PaidTimeOff decimal.Decimal
	WorkedDays  decimal.Decimal
}

// PayslipAmounts - calculator output
type PayslipAmounts struct {
	TotalWorkingDays int
	Earnings         Components
	GrossSalary      decimal.Decimal
	PFEmployee       decimal.Decimal
	PFEmployer       decimal.Decimal
	ProfessionalTax  decimal.Decimal
	TDSDeduction     decimal.Decimal
	OtherDeductions  decimal.Decimal
	TotalDeductions  decimal.Decimal
	NetSalary        decimal.Decimal
}

// Payslip - one employee's computed pay within a payrun
type Payslip struct {
	ID                string
	PayrunID          string
	EmployeeID        string
	SalaryStructureID string
	EmployeeSnapshot
	AttendanceSummary
	PayslipAmounts
	IsEditable bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PayrunTotals - aggregate of a payslip set
type PayrunTotals struct {
	EmployeeCount             int
	TotalGrossWage            decimal.Decimal
	TotalDeductions           decimal.Decimal
	TotalNetWage              decimal.Decimal
	TotalEmployerContribution decimal.Decimal
}
