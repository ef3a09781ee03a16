package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Config holds the engine settings loaded from the environment.
type Config struct {
	// ProfessionalTaxThreshold falls back to DefaultProfessionalTaxThreshold when nil.
	// Zero charges professional tax on every positive gross.
	ProfessionalTaxThreshold *decimal.Decimal
	BatchSize                int
	Workers                  int
	Now                      func() time.Time
}

type PayrollServiceImpl struct {
	txManager     payroll.TxManager
	structureRepo payroll.SalaryStructureRepository
	payrunRepo    payroll.PayrunRepository
	payslipRepo   payroll.PayslipRepository
	employeeRepo  employee.EmployeeRepository
	summarizer    *AttendanceSummarizer
	rules         CalculationRules
	batchSize     int
	workers       int
	now           func() time.Time
}

func NewPayrollService(
	txManager payroll.TxManager,
	structureRepo payroll.SalaryStructureRepository,
	payrunRepo payroll.PayrunRepository,
	payslipRepo payroll.PayslipRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	cfg Config,
) payroll.PayrollService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	threshold := DefaultProfessionalTaxThreshold
	if cfg.ProfessionalTaxThreshold != nil {
		threshold = *cfg.ProfessionalTaxThreshold
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}

	return &PayrollServiceImpl{
		txManager:     txManager,
		structureRepo: structureRepo,
		payrunRepo:    payrunRepo,
		payslipRepo:   payslipRepo,
		employeeRepo:  employeeRepo,
		summarizer:    NewAttendanceSummarizer(attendanceRepo, cfg.Now),
		rules:         CalculationRules{ProfessionalTaxThreshold: threshold},
		batchSize:     cfg.BatchSize,
		workers:       cfg.Workers,
		now:           cfg.Now,
	}
}

func transitionError(run payroll.Payrun, target payroll.PayrunStatus) error {
	return fmt.Errorf("payrun %s cannot move from %s to %s: %w", run.ID, run.Status, target, payroll.ErrInvalidPayrunTransition)
}

// ========== PAYRUNS ==========

func (s *PayrollServiceImpl) CreatePayrun(ctx context.Context, req payroll.CreatePayrunRequest) (payroll.PayrunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrunResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.PayrunResponse{}, fmt.Errorf("failed to generate payrun id: %w", err)
	}

	start, end := payroll.PayPeriod(req.Month, req.Year)
	created, err := s.payrunRepo.Create(ctx, payroll.Payrun{
		ID:                        id.String(),
		Month:                     req.Month,
		Year:                      req.Year,
		Status:                    payroll.PayrunStatusDraft,
		PayPeriodStart:            start,
		PayPeriodEnd:              end,
		TotalGrossWage:            decimal.Zero,
		TotalDeductions:           decimal.Zero,
		TotalNetWage:              decimal.Zero,
		TotalEmployerContribution: decimal.Zero,
		Warnings:                  []payroll.PayrunWarning{},
	})
	if err != nil {
		return payroll.PayrunResponse{}, err
	}

	slog.Info("Payrun created", "payrun_id", created.ID, "month", created.Month, "year", created.Year)
	return mapToPayrunResponse(created), nil
}

// computeResult is one employee's outcome inside ProcessPayrun.
type computeResult struct {
	payslip *payroll.Payslip
	warning *payroll.PayrunWarning
}

func (s *PayrollServiceImpl) ProcessPayrun(ctx context.Context, id string) (payroll.PayrunResponse, error) {
	var processed payroll.Payrun

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		run, err := s.payrunRepo.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if run.Status != payroll.PayrunStatusDraft && run.Status != payroll.PayrunStatusProcessed {
			return transitionError(run, payroll.PayrunStatusProcessing)
		}

		run.Status = payroll.PayrunStatusProcessing
		run, err = s.payrunRepo.Update(txCtx, run)
		if err != nil {
			return fmt.Errorf("failed to mark payrun %s processing: %w", id, err)
		}

		employees, err := s.employeeRepo.GetActiveEmployees(ctx, run.PayPeriodEnd)
		if err != nil {
			return fmt.Errorf("failed to get active employees for payrun %s: %w", id, err)
		}

		// Reads go through the pool on ctx; the transaction is only used for writes.
		results := make([]computeResult, len(employees))
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for i, emp := range employees {
			i, emp := i, emp
			g.Go(func() error {
				res, err := s.computePayslip(gCtx, run, emp)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("failed to compute payslips for payrun %s: %w", id, err)
		}

		payslips := make([]payroll.Payslip, 0, len(results))
		var warnings []payroll.PayrunWarning
		for _, res := range results {
			if res.warning != nil {
				warnings = append(warnings, *res.warning)
			}
			if res.payslip != nil {
				payslips = append(payslips, *res.payslip)
			}
		}

		if err := s.payslipRepo.DeleteByPayrun(txCtx, run.ID); err != nil {
			return fmt.Errorf("failed to delete payslips of payrun %s: %w", id, err)
		}
		if err := s.payslipRepo.CreateBatch(txCtx, payslips, s.batchSize); err != nil {
			return fmt.Errorf("failed to insert payslips of payrun %s: %w", id, err)
		}

		now := s.now()
		applyTotals(&run, aggregate(payslips))
		run.Warnings = append(warnings, payslipWarnings(payslips)...)
		run.Status = payroll.PayrunStatusProcessed
		run.ProcessedAt = &now
		run, err = s.payrunRepo.Update(txCtx, run)
		if err != nil {
			return fmt.Errorf("failed to mark payrun %s processed: %w", id, err)
		}

		run.Payslips = payslips
		processed = run
		return nil
	})
	if err != nil {
		return payroll.PayrunResponse{}, err
	}

	slog.Info("Payrun processed",
		"payrun_id", processed.ID,
		"employee_count", processed.EmployeeCount,
		"warning_count", len(processed.Warnings),
		"total_net_wage", processed.TotalNetWage.StringFixed(2),
	)
	return mapToPayrunResponse(processed), nil
}

// computePayslip builds one employee's payslip. A missing salary structure is
// reported as a warning; every other failure aborts processing.
func (s *PayrollServiceImpl) computePayslip(ctx context.Context, run payroll.Payrun, emp employee.Employee) (computeResult, error) {
	structure, err := s.structureRepo.GetActive(ctx, emp.ID, run.PayPeriodStart)
	if err != nil {
		if errors.Is(err, payroll.ErrNoSalaryStructure) {
			w := noSalaryStructureWarning(emp, run.PayPeriodStart)
			return computeResult{warning: &w}, nil
		}
		return computeResult{}, fmt.Errorf("failed to get salary structure for employee %s: %w", emp.ID, err)
	}

	summary, err := s.summarizer.Summarize(ctx, emp, run.Month, run.Year, structure.Percentages.WorkingDaysPerWeek)
	if err != nil {
		return computeResult{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return computeResult{}, fmt.Errorf("failed to generate payslip id: %w", err)
	}

	now := s.now()
	payslip := payroll.Payslip{
		ID:                id.String(),
		PayrunID:          run.ID,
		EmployeeID:        emp.ID,
		SalaryStructureID: structure.ID,
		EmployeeSnapshot:  snapshotOf(emp),
		AttendanceSummary: summary,
		PayslipAmounts:    Calculate(structure, summary, run.Month, run.Year, s.rules),
		IsEditable:        true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return computeResult{payslip: &payslip}, nil
}

func snapshotOf(emp employee.Employee) payroll.EmployeeSnapshot {
	return payroll.EmployeeSnapshot{
		EmployeeName: emp.FullName,
		EmployeeCode: emp.EmployeeCode,
		Department:   emp.Department,
		Location:     emp.Location,
		PAN:          emp.PAN,
		UAN:          emp.UAN,
		BankAccount:  emp.BankAccount,
	}
}

func (s *PayrollServiceImpl) ValidatePayrun(ctx context.Context, id string) (payroll.PayrunResponse, error) {
	var validated payroll.Payrun

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		run, err := s.payrunRepo.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if run.Status != payroll.PayrunStatusProcessed {
			return transitionError(run, payroll.PayrunStatusValidated)
		}

		payslips, err := s.payslipRepo.ListByPayrun(txCtx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to list payslips of payrun %s: %w", id, err)
		}

		now := s.now()
		run.Warnings = rederiveWarnings(run.Warnings, payslips)
		run.Status = payroll.PayrunStatusValidated
		run.ValidatedAt = &now
		run, err = s.payrunRepo.Update(txCtx, run)
		if err != nil {
			return fmt.Errorf("failed to mark payrun %s validated: %w", id, err)
		}

		run.Payslips = payslips
		validated = run
		return nil
	})
	if err != nil {
		return payroll.PayrunResponse{}, err
	}

	slog.Info("Payrun validated", "payrun_id", validated.ID, "warning_count", len(validated.Warnings))
	return mapToPayrunResponse(validated), nil
}

func (s *PayrollServiceImpl) MarkPayrunPaid(ctx context.Context, id string) (payroll.PayrunResponse, error) {
	var paid payroll.Payrun

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		run, err := s.payrunRepo.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if run.Status != payroll.PayrunStatusValidated {
			return transitionError(run, payroll.PayrunStatusPaid)
		}

		if err := s.payslipRepo.MarkNotEditable(txCtx, run.ID); err != nil {
			return fmt.Errorf("failed to lock payslips of payrun %s: %w", id, err)
		}

		now := s.now()
		run.Status = payroll.PayrunStatusPaid
		run.PaidAt = &now
		run, err = s.payrunRepo.Update(txCtx, run)
		if err != nil {
			return fmt.Errorf("failed to mark payrun %s paid: %w", id, err)
		}

		paid = run
		return nil
	})
	if err != nil {
		return payroll.PayrunResponse{}, err
	}

	slog.Info("Payrun marked paid", "payrun_id", paid.ID, "total_net_wage", paid.TotalNetWage.StringFixed(2))
	return mapToPayrunResponse(paid), nil
}

func (s *PayrollServiceImpl) DeletePayrun(ctx context.Context, id string) error {
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		run, err := s.payrunRepo.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if !run.Status.Deletable() {
			return fmt.Errorf("payrun %s is %s: %w", id, run.Status, payroll.ErrPayrunLocked)
		}

		if err := s.payslipRepo.DeleteByPayrun(txCtx, run.ID); err != nil {
			return fmt.Errorf("failed to delete payslips of payrun %s: %w", id, err)
		}
		return s.payrunRepo.Delete(txCtx, run.ID)
	})
	if err != nil {
		return err
	}

	slog.Info("Payrun deleted", "payrun_id", id)
	return nil
}

func (s *PayrollServiceImpl) GetPayrun(ctx context.Context, id string) (payroll.PayrunResponse, error) {
	run, err := s.payrunRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrunResponse{}, err
	}

	run.Payslips, err = s.payslipRepo.ListByPayrun(ctx, run.ID)
	if err != nil {
		return payroll.PayrunResponse{}, fmt.Errorf("failed to list payslips of payrun %s: %w", id, err)
	}

	return mapToPayrunResponse(run), nil
}

func (s *PayrollServiceImpl) ListPayruns(ctx context.Context, filter payroll.PayrunFilter) (payroll.ListPayrunResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrunResponse{}, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	runs, totalCount, err := s.payrunRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrunResponse{}, err
	}

	data := make([]payroll.PayrunResponse, 0, len(runs))
	for _, r := range runs {
		data = append(data, mapToPayrunResponse(r))
	}

	return payroll.ListPayrunResponse{
		Data:       data,
		TotalCount: totalCount,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	payslip, err := s.payslipRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return mapToPayslipResponse(payslip), nil
}

func (s *PayrollServiceImpl) UpdatePayslipDeductions(ctx context.Context, req payroll.UpdatePayslipDeductionsRequest) (payroll.PayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}

	updated, err := s.editPayslip(ctx, req.ID, func(_ context.Context, _ payroll.Payrun, p payroll.Payslip) (payroll.Payslip, error) {
		tds, other := p.TDSDeduction, p.OtherDeductions
		if req.TDSDeduction != nil {
			tds = *req.TDSDeduction
		}
		if req.OtherDeductions != nil {
			other = *req.OtherDeductions
		}
		p.PayslipAmounts = ApplyDeductions(p.PayslipAmounts, tds, other)
		return p, nil
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	slog.Info("Payslip deductions updated",
		"payslip_id", updated.ID,
		"payrun_id", updated.PayrunID,
		"tds_deduction", updated.TDSDeduction.StringFixed(2),
		"other_deductions", updated.OtherDeductions.StringFixed(2),
	)
	return mapToPayslipResponse(updated), nil
}

func (s *PayrollServiceImpl) RecalculatePayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	updated, err := s.editPayslip(ctx, id, func(txCtx context.Context, run payroll.Payrun, p payroll.Payslip) (payroll.Payslip, error) {
		emp, err := s.employeeRepo.GetByID(txCtx, p.EmployeeID)
		if err != nil {
			return payroll.Payslip{}, fmt.Errorf("failed to get employee %s: %w", p.EmployeeID, err)
		}

		structure, err := s.structureRepo.GetActive(txCtx, emp.ID, run.PayPeriodStart)
		if err != nil {
			return payroll.Payslip{}, fmt.Errorf("failed to get salary structure for employee %s: %w", emp.ID, err)
		}

		summary, err := s.summarizer.Summarize(txCtx, emp, run.Month, run.Year, structure.Percentages.WorkingDaysPerWeek)
		if err != nil {
			return payroll.Payslip{}, err
		}

		amounts := Calculate(structure, summary, run.Month, run.Year, s.rules)
		p.SalaryStructureID = structure.ID
		p.EmployeeSnapshot = snapshotOf(emp)
		p.AttendanceSummary = summary
		p.PayslipAmounts = ApplyDeductions(amounts, p.TDSDeduction, p.OtherDeductions)
		return p, nil
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	slog.Info("Payslip recalculated", "payslip_id", updated.ID, "payrun_id", updated.PayrunID, "net_salary", updated.NetSalary.StringFixed(2))
	return mapToPayslipResponse(updated), nil
}

// editPayslip applies change to one payslip under the payrun lock, then
// recomputes the payrun's totals and warnings from its full payslip set.
func (s *PayrollServiceImpl) editPayslip(
	ctx context.Context,
	id string,
	change func(txCtx context.Context, run payroll.Payrun, p payroll.Payslip) (payroll.Payslip, error),
) (payroll.Payslip, error) {
	var updated payroll.Payslip

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		payslip, err := s.payslipRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		run, err := s.payrunRepo.LockByID(txCtx, payslip.PayrunID)
		if err != nil {
			return err
		}
		if run.Status == payroll.PayrunStatusPaid || !payslip.IsEditable {
			return fmt.Errorf("payslip %s of payrun %s: %w", id, run.ID, payroll.ErrPayslipLocked)
		}

		payslip, err = change(txCtx, run, payslip)
		if err != nil {
			return err
		}
		payslip.UpdatedAt = s.now()
		if err := s.payslipRepo.Update(txCtx, payslip); err != nil {
			return fmt.Errorf("failed to update payslip %s: %w", id, err)
		}

		payslips, err := s.payslipRepo.ListByPayrun(txCtx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to list payslips of payrun %s: %w", run.ID, err)
		}
		applyTotals(&run, aggregate(payslips))
		run.Warnings = rederiveWarnings(run.Warnings, payslips)
		if _, err := s.payrunRepo.Update(txCtx, run); err != nil {
			return fmt.Errorf("failed to update totals of payrun %s: %w", run.ID, err)
		}

		updated = payslip
		return nil
	})
	if err != nil {
		return payroll.Payslip{}, err
	}
	return updated, nil
}

// ========== SALARY STRUCTURES ==========

func (s *PayrollServiceImpl) CreateSalaryStructure(ctx context.Context, req payroll.CreateSalaryStructureRequest) (payroll.SalaryStructureResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryStructureResponse{}, err
	}
	effectiveFrom, _ := validator.IsValidDate(req.EffectiveFrom)

	percentages := req.Percentages.Apply(payroll.DefaultPercentages())
	components, err := DeriveComponents(req.MonthlyWage, percentages)
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	var saved payroll.SalaryStructure
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.employeeRepo.GetByID(txCtx, req.EmployeeID); err != nil {
			return err
		}

		structure := payroll.SalaryStructure{
			EmployeeID:    req.EmployeeID,
			EffectiveFrom: effectiveFrom,
			MonthlyWage:   round2(req.MonthlyWage),
			Percentages:   percentages,
			Components:    components,
		}

		existing, err := s.structureRepo.GetByEmployeeAndDate(txCtx, req.EmployeeID, effectiveFrom)
		switch {
		case err == nil:
			referenced, err := s.structureRepo.IsReferenced(txCtx, existing.ID)
			if err != nil {
				return fmt.Errorf("failed to check references of salary structure %s: %w", existing.ID, err)
			}
			if referenced {
				return fmt.Errorf("salary structure %s effective %s: %w", existing.ID, req.EffectiveFrom, payroll.ErrSalaryStructureInUse)
			}
			structure.ID = existing.ID
			structure.CreatedAt = existing.CreatedAt
		case errors.Is(err, payroll.ErrNoSalaryStructure):
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate salary structure id: %w", err)
			}
			structure.ID = id.String()
		default:
			return fmt.Errorf("failed to get salary structure for employee %s: %w", req.EmployeeID, err)
		}

		saved, err = s.structureRepo.Upsert(txCtx, structure)
		return err
	})
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	slog.Info("Salary structure saved", "salary_structure_id", saved.ID, "employee_id", saved.EmployeeID, "effective_from", req.EffectiveFrom)
	return mapToStructureResponse(saved), nil
}

func (s *PayrollServiceImpl) ListSalaryStructures(ctx context.Context, employeeID string) ([]payroll.SalaryStructureResponse, error) {
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	structures, err := s.structureRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures for employee %s: %w", employeeID, err)
	}
	sort.Slice(structures, func(i, j int) bool {
		return structures[i].EffectiveFrom.After(structures[j].EffectiveFrom)
	})

	result := make([]payroll.SalaryStructureResponse, 0, len(structures))
	for _, st := range structures {
		result = append(result, mapToStructureResponse(st))
	}
	return result, nil
}
