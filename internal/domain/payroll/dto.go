package payroll

import (
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PAYRUN DTOs ==========

type CreatePayrunRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *CreatePayrunRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if r.Year < 2000 || r.Year > 2100 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrunFilter struct {
	Month  *int    `json:"month,omitempty"`
	Year   *int    `json:"year,omitempty"`
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

func (f *PayrunFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if f.Year != nil && (*f.Year < 2000 || *f.Year > 2100) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	if f.Status != nil && !PayrunStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of DRAFT, PROCESSING, PROCESSED, VALIDATED, PAID"})
	}
	if f.Limit < 0 || f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must be between 1 and 100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrunResponse struct {
	ID                        string            `json:"id"`
	Month                     int               `json:"month"`
	Year                      int               `json:"year"`
	Status                    string            `json:"status"`
	PayPeriodStart            string            `json:"pay_period_start"`
	PayPeriodEnd              string            `json:"pay_period_end"`
	EmployeeCount             int               `json:"employee_count"`
	TotalGrossWage            decimal.Decimal   `json:"total_gross_wage"`
	TotalDeductions           decimal.Decimal   `json:"total_deductions"`
	TotalNetWage              decimal.Decimal   `json:"total_net_wage"`
	TotalEmployerContribution decimal.Decimal   `json:"total_employer_contribution"`
	Warnings                  []string          `json:"warnings"`
	WarningDetails            []PayrunWarning   `json:"warning_details"`
	ProcessedAt               *string           `json:"processed_at,omitempty"`
	ValidatedAt               *string           `json:"validated_at,omitempty"`
	PaidAt                    *string           `json:"paid_at,omitempty"`
	Payslips                  []PayslipResponse `json:"payslips,omitempty"`
}

type ListPayrunResponse struct {
	Data       []PayrunResponse `json:"data"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// ========== PAYSLIP DTOs ==========

type UpdatePayslipDeductionsRequest struct {
	ID              string           `json:"-"`
	TDSDeduction    *decimal.Decimal `json:"tds_deduction,omitempty"`
	OtherDeductions *decimal.Decimal `json:"other_deductions,omitempty"`
}

func (r *UpdatePayslipDeductionsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.TDSDeduction == nil && r.OtherDeductions == nil {
		errs = append(errs, validator.ValidationError{Field: "tds_deduction", Message: "tds_deduction or other_deductions is required"})
	}
	if r.TDSDeduction != nil && r.TDSDeduction.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "tds_deduction", Message: "must be non-negative"})
	}
	if r.OtherDeductions != nil && r.OtherDeductions.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "other_deductions", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayslipResponse struct {
	ID                string          `json:"id"`
	PayrunID          string          `json:"payrun_id"`
	EmployeeID        string          `json:"employee_id"`
	SalaryStructureID string          `json:"salary_structure_id"`
	EmployeeName      string          `json:"employee_name"`
	EmployeeCode      string          `json:"employee_code"`
	Department        *string         `json:"department,omitempty"`
	Location          *string         `json:"location,omitempty"`
	PAN               *string         `json:"pan,omitempty"`
	UAN               *string         `json:"uan,omitempty"`
	BankAccount       *string         `json:"bank_account,omitempty"`
	DaysInMonth       int             `json:"days_in_month"`
	TotalWorkingDays  int             `json:"total_working_days"`
	PresentDays       decimal.Decimal `json:"present_days"`
	AbsentDays        decimal.Decimal `json:"absent_days"`
	PaidTimeOff       decimal.Decimal `json:"paid_time_off"`
	WorkedDays        decimal.Decimal `json:"worked_days"`
	BasicSalary       decimal.Decimal `json:"basic_salary"`
	HRA               decimal.Decimal `json:"hra"`
	StandardAllowance decimal.Decimal `json:"standard_allowance"`
	PerformanceBonus  decimal.Decimal `json:"performance_bonus"`
	LTA               decimal.Decimal `json:"lta"`
	FixedAllowance    decimal.Decimal `json:"fixed_allowance"`
	GrossSalary       decimal.Decimal `json:"gross_salary"`
	PFEmployee        decimal.Decimal `json:"pf_employee"`
	PFEmployer        decimal.Decimal `json:"pf_employer"`
	ProfessionalTax   decimal.Decimal `json:"professional_tax"`
	TDSDeduction      decimal.Decimal `json:"tds_deduction"`
	OtherDeductions   decimal.Decimal `json:"other_deductions"`
	TotalDeductions   decimal.Decimal `json:"total_deductions"`
	NetSalary         decimal.Decimal `json:"net_salary"`
	IsEditable        bool            `json:"is_editable"`
}

// PayrunRegisterRow is one line of the payrun register export.
type PayrunRegisterRow struct {
	EmployeeCode    string `csv:"employee_code"`
	EmployeeName    string `csv:"employee_name"`
	Department      string `csv:"department"`
	BankAccount     string `csv:"bank_account"`
	WorkedDays      string `csv:"worked_days"`
	GrossSalary     string `csv:"gross_salary"`
	PFEmployee      string `csv:"pf_employee"`
	ProfessionalTax string `csv:"professional_tax"`
	TDSDeduction    string `csv:"tds_deduction"`
	OtherDeductions string `csv:"other_deductions"`
	TotalDeductions string `csv:"total_deductions"`
	NetSalary       string `csv:"net_salary"`
}

// ========== SALARY STRUCTURE DTOs ==========

// PercentagesRequest overrides individual structure defaults.
type PercentagesRequest struct {
	BasicPercentage            *decimal.Decimal `json:"basic_percentage,omitempty"`
	HRAPercentage              *decimal.Decimal `json:"hra_percentage,omitempty"`
	StandardAllowance          *decimal.Decimal `json:"standard_allowance,omitempty"`
	PerformanceBonusPercentage *decimal.Decimal `json:"performance_bonus_percentage,omitempty"`
	LTAPercentage              *decimal.Decimal `json:"lta_percentage,omitempty"`
	PFPercentage               *decimal.Decimal `json:"pf_percentage,omitempty"`
	ProfessionalTax            *decimal.Decimal `json:"professional_tax,omitempty"`
	WorkingDaysPerWeek         *int             `json:"working_days_per_week,omitempty"`
	WorkingHoursPerDay         *int             `json:"working_hours_per_day,omitempty"`
}

// Apply returns the defaults with every non-nil override applied.
func (p *PercentagesRequest) Apply(base StructurePercentages) StructurePercentages {
	if p == nil {
		return base
	}
	if p.BasicPercentage != nil {
		base.BasicPercentage = *p.BasicPercentage
	}
	if p.HRAPercentage != nil {
		base.HRAPercentage = *p.HRAPercentage
	}
	if p.StandardAllowance != nil {
		base.StandardAllowance = *p.StandardAllowance
	}
	if p.PerformanceBonusPercentage != nil {
		base.PerformanceBonusPercentage = *p.PerformanceBonusPercentage
	}
	if p.LTAPercentage != nil {
		base.LTAPercentage = *p.LTAPercentage
	}
	if p.PFPercentage != nil {
		base.PFPercentage = *p.PFPercentage
	}
	if p.ProfessionalTax != nil {
		base.ProfessionalTax = *p.ProfessionalTax
	}
	if p.WorkingDaysPerWeek != nil {
		base.WorkingDaysPerWeek = *p.WorkingDaysPerWeek
	}
	if p.WorkingHoursPerDay != nil {
		base.WorkingHoursPerDay = *p.WorkingHoursPerDay
	}
	return base
}

type CreateSalaryStructureRequest struct {
	EmployeeID    string              `json:"-"`
	MonthlyWage   decimal.Decimal     `json:"monthly_wage"`
	EffectiveFrom string              `json:"effective_from"`
	Percentages   *PercentagesRequest `json:"percentages,omitempty"`
}

func (r *CreateSalaryStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if !r.MonthlyWage.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "monthly_wage", Message: "must be greater than 0"})
	}
	if _, ok := validator.IsValidDate(r.EffectiveFrom); !ok {
		errs = append(errs, validator.ValidationError{Field: "effective_from", Message: "must be a date in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SalaryStructureResponse struct {
	ID                         string          `json:"id"`
	EmployeeID                 string          `json:"employee_id"`
	EffectiveFrom              string          `json:"effective_from"`
	MonthlyWage                decimal.Decimal `json:"monthly_wage"`
	BasicPercentage            decimal.Decimal `json:"basic_percentage"`
	HRAPercentage              decimal.Decimal `json:"hra_percentage"`
	PerformanceBonusPercentage decimal.Decimal `json:"performance_bonus_percentage"`
	LTAPercentage              decimal.Decimal `json:"lta_percentage"`
	PFPercentage               decimal.Decimal `json:"pf_percentage"`
	ProfessionalTax            decimal.Decimal `json:"professional_tax"`
	WorkingDaysPerWeek         int             `json:"working_days_per_week"`
	WorkingHoursPerDay         int             `json:"working_hours_per_day"`
	BasicSalary                decimal.Decimal `json:"basic_salary"`
	HRA                        decimal.Decimal `json:"hra"`
	StandardAllowance          decimal.Decimal `json:"standard_allowance"`
	PerformanceBonus           decimal.Decimal `json:"performance_bonus"`
	LTA                        decimal.Decimal `json:"lta"`
	FixedAllowance             decimal.Decimal `json:"fixed_allowance"`
}
