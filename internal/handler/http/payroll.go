package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Payruns
	CreatePayrun(w http.ResponseWriter, r *http.Request)
	ListPayruns(w http.ResponseWriter, r *http.Request)
	GetPayrun(w http.ResponseWriter, r *http.Request)
	DeletePayrun(w http.ResponseWriter, r *http.Request)
	ProcessPayrun(w http.ResponseWriter, r *http.Request)
	ValidatePayrun(w http.ResponseWriter, r *http.Request)
	MarkPayrunPaid(w http.ResponseWriter, r *http.Request)
	ExportPayrunRegister(w http.ResponseWriter, r *http.Request)

	// Payslips
	GetPayslip(w http.ResponseWriter, r *http.Request)
	UpdatePayslipDeductions(w http.ResponseWriter, r *http.Request)
	RecalculatePayslip(w http.ResponseWriter, r *http.Request)
	DownloadPayslipPDF(w http.ResponseWriter, r *http.Request)

	// Salary structures
	CreateSalaryStructure(w http.ResponseWriter, r *http.Request)
	ListSalaryStructures(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// pathID reads a UUID path parameter, writing a 400 response when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, param, label string) (string, bool) {
	id := chi.URLParam(r, param)
	if id == "" {
		response.BadRequest(w, label+" ID is required", nil)
		return "", false
	}
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid "+label+" ID", nil)
		return "", false
	}
	return id, true
}

// ========== PAYRUNS ==========

func (h *payrollHandlerImpl) CreatePayrun(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreatePayrunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreatePayrun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payrun created", result)
}

func (h *payrollHandlerImpl) ListPayruns(w http.ResponseWriter, r *http.Request) {
	filter := payroll.PayrunFilter{
		Page:  1,
		Limit: 20,
	}

	query := r.URL.Query()
	var errs validator.ValidationErrors
	if month, ok := validator.ParseOptionalInt(query.Get("month")); ok {
		filter.Month = month
	} else {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be a number"})
	}
	if year, ok := validator.ParseOptionalInt(query.Get("year")); ok {
		filter.Year = year
	} else {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be a number"})
	}
	if page, ok := validator.ParseOptionalInt(query.Get("page")); ok && page != nil && *page > 0 {
		filter.Page = *page
	}
	if limit, ok := validator.ParseOptionalInt(query.Get("limit")); ok && limit != nil && *limit > 0 {
		filter.Limit = *limit
	}
	if status := query.Get("status"); status != "" {
		filter.Status = &status
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.payrollService.ListPayruns(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := 0
	if result.Limit > 0 {
		totalPages = int((result.TotalCount + int64(result.Limit) - 1) / int64(result.Limit))
	}
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

func (h *payrollHandlerImpl) GetPayrun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payrun")
	if !ok {
		return
	}

	result, err := h.payrollService.GetPayrun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) DeletePayrun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payrun")
	if !ok {
		return
	}

	if err := h.payrollService.DeletePayrun(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payrun deleted", nil)
}

func (h *payrollHandlerImpl) ProcessPayrun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payrun")
	if !ok {
		return
	}

	result, err := h.payrollService.ProcessPayrun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payrun processed", result)
}

func (h *payrollHandlerImpl) ValidatePayrun(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payrun")
	if !ok {
		return
	}

	result, err := h.payrollService.ValidatePayrun(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payrun validated", result)
}

func (h *payrollHandlerImpl) MarkPayrunPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payrun")
	if !ok {
		return
	}

	result, err := h.payrollService.MarkPayrunPaid(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payrun marked as paid", result)
}

func (h *payrollHandlerImpl) ExportPayrunRegister(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payrun")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.payrollService.ExportPayrunRegister(r.Context(), id, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payrun-%s-register.csv"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ========== PAYSLIPS ==========

func (h *payrollHandlerImpl) GetPayslip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payslip")
	if !ok {
		return
	}

	result, err := h.payrollService.GetPayslip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdatePayslipDeductions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payslip")
	if !ok {
		return
	}

	var req payroll.UpdatePayslipDeductionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.payrollService.UpdatePayslipDeductions(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payslip deductions updated", result)
}

func (h *payrollHandlerImpl) RecalculatePayslip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payslip")
	if !ok {
		return
	}

	result, err := h.payrollService.RecalculatePayslip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payslip recalculated", result)
}

func (h *payrollHandlerImpl) DownloadPayslipPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Payslip")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.payrollService.RenderPayslipPDF(r.Context(), id, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payslip-%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ========== SALARY STRUCTURES ==========

func (h *payrollHandlerImpl) CreateSalaryStructure(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := pathID(w, r, "employeeId", "Employee")
	if !ok {
		return
	}

	var req payroll.CreateSalaryStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.payrollService.CreateSalaryStructure(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary structure saved", result)
}

func (h *payrollHandlerImpl) ListSalaryStructures(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := pathID(w, r, "employeeId", "Employee")
	if !ok {
		return
	}

	result, err := h.payrollService.ListSalaryStructures(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
