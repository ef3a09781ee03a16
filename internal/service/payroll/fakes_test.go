package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories. A failed
// transaction restores the snapshot taken when it began.
type memStore struct {
	mu         sync.Mutex
	structures map[string]payroll.SalaryStructure
	payruns    map[string]payroll.Payrun
	payslips   map[string]payroll.Payslip
	employees  map[string]employee.Employee
	records    map[string][]attendance.Record
	leaves     map[string][]attendance.ApprovedLeave
	locks      map[string]int64
	nextTx     int64

	createBatchErr error
}

type fakeTxKey struct{}

func newMemStore() *memStore {
	return &memStore{
		structures: map[string]payroll.SalaryStructure{},
		payruns:    map[string]payroll.Payrun{},
		payslips:   map[string]payroll.Payslip{},
		employees:  map[string]employee.Employee{},
		records:    map[string][]attendance.Record{},
		leaves:     map[string][]attendance.ApprovedLeave{},
		locks:      map[string]int64{},
	}
}

type memSnapshot struct {
	structures map[string]payroll.SalaryStructure
	payruns    map[string]payroll.Payrun
	payslips   map[string]payroll.Payslip
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ========== TX MANAGER ==========

type fakeTxManager struct{ store *memStore }

func (m fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(fakeTxKey{}).(int64); ok {
		return fn(ctx)
	}

	s := m.store
	s.mu.Lock()
	s.nextTx++
	txID := s.nextTx
	snap := memSnapshot{
		structures: copyMap(s.structures),
		payruns:    copyMap(s.payruns),
		payslips:   copyMap(s.payslips),
	}
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, fakeTxKey{}, txID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.structures = snap.structures
		s.payruns = snap.payruns
		s.payslips = snap.payslips
	}
	for id, holder := range s.locks {
		if holder == txID {
			delete(s.locks, id)
		}
	}
	return err
}

// ========== SALARY STRUCTURES ==========

type fakeStructureRepo struct{ store *memStore }

func (r fakeStructureRepo) Upsert(_ context.Context, st payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	st.UpdatedAt = time.Now()
	r.store.structures[st.ID] = st
	return st, nil
}

func (r fakeStructureRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, effectiveFrom time.Time) (payroll.SalaryStructure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, st := range r.store.structures {
		if st.EmployeeID == employeeID && st.EffectiveFrom.Equal(effectiveFrom) {
			return st, nil
		}
	}
	return payroll.SalaryStructure{}, payroll.ErrNoSalaryStructure
}

func (r fakeStructureRepo) GetActive(_ context.Context, employeeID string, asOf time.Time) (payroll.SalaryStructure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var found payroll.SalaryStructure
	ok := false
	for _, st := range r.store.structures {
		if st.EmployeeID != employeeID || st.EffectiveFrom.After(asOf) {
			continue
		}
		if !ok || st.EffectiveFrom.After(found.EffectiveFrom) {
			found, ok = st, true
		}
	}
	if !ok {
		return payroll.SalaryStructure{}, payroll.ErrNoSalaryStructure
	}
	return found, nil
}

func (r fakeStructureRepo) ListByEmployee(_ context.Context, employeeID string) ([]payroll.SalaryStructure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []payroll.SalaryStructure
	for _, st := range r.store.structures {
		if st.EmployeeID == employeeID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r fakeStructureRepo) IsReferenced(_ context.Context, structureID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.payslips {
		if p.SalaryStructureID == structureID {
			return true, nil
		}
	}
	return false, nil
}

// ========== PAYRUNS ==========

type fakePayrunRepo struct{ store *memStore }

func clonePayrun(p payroll.Payrun) payroll.Payrun {
	p.Warnings = append([]payroll.PayrunWarning(nil), p.Warnings...)
	p.Payslips = nil
	return p
}

func (r fakePayrunRepo) Create(_ context.Context, run payroll.Payrun) (payroll.Payrun, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.payruns {
		if existing.Month == run.Month && existing.Year == run.Year {
			return payroll.Payrun{}, payroll.ErrDuplicatePayrun
		}
	}
	run.Version = 1
	run.CreatedAt = time.Now()
	run.UpdatedAt = run.CreatedAt
	r.store.payruns[run.ID] = clonePayrun(run)
	return clonePayrun(run), nil
}

func (r fakePayrunRepo) GetByID(_ context.Context, id string) (payroll.Payrun, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	run, ok := r.store.payruns[id]
	if !ok {
		return payroll.Payrun{}, payroll.ErrPayrunNotFound
	}
	return clonePayrun(run), nil
}

func (r fakePayrunRepo) LockByID(ctx context.Context, id string) (payroll.Payrun, error) {
	txID, _ := ctx.Value(fakeTxKey{}).(int64)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	run, ok := r.store.payruns[id]
	if !ok {
		return payroll.Payrun{}, payroll.ErrPayrunNotFound
	}
	if holder, held := r.store.locks[id]; held && holder != txID {
		return payroll.Payrun{}, payroll.ErrConcurrentModification
	}
	if txID != 0 {
		r.store.locks[id] = txID
	}
	return clonePayrun(run), nil
}

func (r fakePayrunRepo) List(_ context.Context, filter payroll.PayrunFilter) ([]payroll.Payrun, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matched []payroll.Payrun
	for _, run := range r.store.payruns {
		if filter.Month != nil && run.Month != *filter.Month {
			continue
		}
		if filter.Year != nil && run.Year != *filter.Year {
			continue
		}
		if filter.Status != nil && string(run.Status) != *filter.Status {
			continue
		}
		matched = append(matched, clonePayrun(run))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Year != matched[j].Year {
			return matched[i].Year > matched[j].Year
		}
		return matched[i].Month > matched[j].Month
	})

	total := int64(len(matched))
	offset := (filter.Page - 1) * filter.Limit
	if offset >= len(matched) {
		return []payroll.Payrun{}, total, nil
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r fakePayrunRepo) Update(_ context.Context, run payroll.Payrun) (payroll.Payrun, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.payruns[run.ID]
	if !ok {
		return payroll.Payrun{}, payroll.ErrPayrunNotFound
	}
	if existing.Version != run.Version {
		return payroll.Payrun{}, payroll.ErrConcurrentModification
	}
	run.Version++
	run.UpdatedAt = time.Now()
	r.store.payruns[run.ID] = clonePayrun(run)
	return clonePayrun(run), nil
}

func (r fakePayrunRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.payruns[id]; !ok {
		return payroll.ErrPayrunNotFound
	}
	delete(r.store.payruns, id)
	return nil
}

// ========== PAYSLIPS ==========

type fakePayslipRepo struct{ store *memStore }

func (r fakePayslipRepo) CreateBatch(_ context.Context, payslips []payroll.Payslip, _ int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.createBatchErr != nil {
		return r.store.createBatchErr
	}
	for _, p := range payslips {
		r.store.payslips[p.ID] = p
	}
	return nil
}

func (r fakePayslipRepo) GetByID(_ context.Context, id string) (payroll.Payslip, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, nil
}

func (r fakePayslipRepo) ListByPayrun(_ context.Context, payrunID string) ([]payroll.Payslip, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []payroll.Payslip{}
	for _, p := range r.store.payslips {
		if p.PayrunID == payrunID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

func (r fakePayslipRepo) Update(_ context.Context, payslip payroll.Payslip) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.payslips[payslip.ID]
	if !ok {
		return payroll.ErrPayslipNotFound
	}
	if !existing.IsEditable {
		return payroll.ErrPayslipLocked
	}
	r.store.payslips[payslip.ID] = payslip
	return nil
}

func (r fakePayslipRepo) DeleteByPayrun(_ context.Context, payrunID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, p := range r.store.payslips {
		if p.PayrunID == payrunID {
			delete(r.store.payslips, id)
		}
	}
	return nil
}

func (r fakePayslipRepo) MarkNotEditable(_ context.Context, payrunID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, p := range r.store.payslips {
		if p.PayrunID == payrunID {
			p.IsEditable = false
			r.store.payslips[id] = p
		}
	}
	return nil
}

// ========== EMPLOYEES & ATTENDANCE ==========

type fakeEmployeeRepo struct{ store *memStore }

func (r fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	emp, ok := r.store.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r fakeEmployeeRepo) GetActiveEmployees(_ context.Context, asOf time.Time) ([]employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []employee.Employee
	for _, emp := range r.store.employees {
		if emp.Status == employee.EmploymentStatusActive && !emp.HireDate.After(asOf) {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

type fakeAttendanceRepo struct{ store *memStore }

func (r fakeAttendanceRepo) GetAttendanceRecords(_ context.Context, employeeID string, month, year int) ([]attendance.Record, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []attendance.Record
	for _, rec := range r.store.records[employeeID] {
		if int(rec.Date.Month()) == month && rec.Date.Year() == year {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r fakeAttendanceRepo) GetApprovedLeaves(_ context.Context, employeeID string, month, year int) ([]attendance.ApprovedLeave, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	start, end := payroll.PayPeriod(month, year)
	var out []attendance.ApprovedLeave
	for _, l := range r.store.leaves[employeeID] {
		if !l.EndDate.Before(start) && !l.StartDate.After(end) {
			out = append(out, l)
		}
	}
	return out, nil
}

// ========== SEEDING ==========

func (s *memStore) addEmployee(emp employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
}

// markAttendance records statusFor(day) on every weekday of the month, skipping days
// for which statusFor returns "".
func (s *memStore) markAttendance(employeeID string, month, year int, statusFor func(day time.Time) attendance.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, end := payroll.PayPeriod(month, year)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsWorkingDay(d.Weekday(), 5) {
			continue
		}
		status := statusFor(d)
		if status == "" {
			continue
		}
		s.records[employeeID] = append(s.records[employeeID], attendance.Record{EmployeeID: employeeID, Date: d, Status: status})
	}
}

func (s *memStore) clearAttendance(employeeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, employeeID)
}

func (s *memStore) failCreateBatch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createBatchErr = err
}

func (s *memStore) payslipCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payslips)
}
