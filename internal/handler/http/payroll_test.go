package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret = "test-secret-key-for-jwt"
	testPayrunID      = "01900000-0000-7000-8000-000000000001"
	testPayslipID     = "01900000-0000-7000-8000-000000000002"
	testEmployeeID    = "01900000-0000-7000-8000-000000000003"
)

// stubPayrollService records the requests it receives. Methods a test does not
// set panic through the nil embedded interface.
type stubPayrollService struct {
	payroll.PayrollService

	createPayrun            func(req payroll.CreatePayrunRequest) (payroll.PayrunResponse, error)
	listPayruns             func(filter payroll.PayrunFilter) (payroll.ListPayrunResponse, error)
	getPayrun               func(id string) (payroll.PayrunResponse, error)
	deletePayrun            func(id string) error
	processPayrun           func(id string) (payroll.PayrunResponse, error)
	markPayrunPaid          func(id string) (payroll.PayrunResponse, error)
	exportPayrunRegister    func(id string, w io.Writer) error
	updatePayslipDeductions func(req payroll.UpdatePayslipDeductionsRequest) (payroll.PayslipResponse, error)
	createSalaryStructure   func(req payroll.CreateSalaryStructureRequest) (payroll.SalaryStructureResponse, error)
}

func (s *stubPayrollService) CreatePayrun(_ context.Context, req payroll.CreatePayrunRequest) (payroll.PayrunResponse, error) {
	return s.createPayrun(req)
}

func (s *stubPayrollService) ListPayruns(_ context.Context, filter payroll.PayrunFilter) (payroll.ListPayrunResponse, error) {
	return s.listPayruns(filter)
}

func (s *stubPayrollService) GetPayrun(_ context.Context, id string) (payroll.PayrunResponse, error) {
	return s.getPayrun(id)
}

func (s *stubPayrollService) DeletePayrun(_ context.Context, id string) error {
	return s.deletePayrun(id)
}

func (s *stubPayrollService) ProcessPayrun(_ context.Context, id string) (payroll.PayrunResponse, error) {
	return s.processPayrun(id)
}

func (s *stubPayrollService) MarkPayrunPaid(_ context.Context, id string) (payroll.PayrunResponse, error) {
	return s.markPayrunPaid(id)
}

func (s *stubPayrollService) ExportPayrunRegister(_ context.Context, id string, w io.Writer) error {
	return s.exportPayrunRegister(id, w)
}

func (s *stubPayrollService) UpdatePayslipDeductions(_ context.Context, req payroll.UpdatePayslipDeductionsRequest) (payroll.PayslipResponse, error) {
	return s.updatePayslipDeductions(req)
}

func (s *stubPayrollService) CreateSalaryStructure(_ context.Context, req payroll.CreateSalaryStructureRequest) (payroll.SalaryStructureResponse, error) {
	return s.createSalaryStructure(req)
}

type routerFixture struct {
	jwt    jwt.Service
	router *chi.Mux
}

func newRouterFixture(svc payroll.PayrollService) *routerFixture {
	jwtSvc := jwt.NewJWTService(handlerTestSecret, time.Hour)
	return &routerFixture{
		jwt: jwtSvc,
		router: NewRouter(jwtSvc, NewPayrollHandler(svc), RouterOptions{
			AllowedOrigins: []string{"http://localhost:3000"},
			Env:            "test",
			LogLevel:       slog.LevelError,
		}),
	}
}

func (f *routerFixture) do(t *testing.T, role user.Role, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if role != "" {
		token, _, err := f.jwt.GenerateAccessToken("user-1", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeBody(t, w)
	assert.False(t, resp["success"].(bool))
	return resp["error"].(map[string]interface{})["code"].(string)
}

// ===== AUTH TESTS =====

// Test missing token - Unauthorized
func TestRouter_MissingToken(t *testing.T) {
	f := newRouterFixture(&stubPayrollService{})

	w := f.do(t, "", http.MethodGet, "/api/v1/payruns", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

// Test token signed with another secret - Unauthorized
func TestRouter_ForeignToken(t *testing.T) {
	f := newRouterFixture(&stubPayrollService{})
	other := jwt.NewJWTService("some-other-secret", time.Hour)
	token, _, err := other.GenerateAccessToken("user-1", user.RolePayroll)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payruns", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// Test employee role - Forbidden
func TestRouter_EmployeeRoleForbidden(t *testing.T) {
	f := newRouterFixture(&stubPayrollService{})

	w := f.do(t, user.RoleEmployee, http.MethodGet, "/api/v1/payruns", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestRouter_PayrollRolesAllowed(t *testing.T) {
	svc := &stubPayrollService{
		listPayruns: func(filter payroll.PayrunFilter) (payroll.ListPayrunResponse, error) {
			return payroll.ListPayrunResponse{Data: []payroll.PayrunResponse{}, Page: 1, Limit: 20}, nil
		},
	}
	f := newRouterFixture(svc)

	for _, role := range []user.Role{user.RoleOwner, user.RoleManager, user.RolePayroll} {
		t.Run(string(role), func(t *testing.T) {
			w := f.do(t, role, http.MethodGet, "/api/v1/payruns", nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRouter_Heartbeat(t *testing.T) {
	f := newRouterFixture(&stubPayrollService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ===== PAYRUN TESTS =====

// Test CreatePayrun - Success
func TestPayrollHandler_CreatePayrun_Success(t *testing.T) {
	var got payroll.CreatePayrunRequest
	svc := &stubPayrollService{
		createPayrun: func(req payroll.CreatePayrunRequest) (payroll.PayrunResponse, error) {
			got = req
			return payroll.PayrunResponse{ID: testPayrunID, Month: req.Month, Year: req.Year, Status: "DRAFT"}, nil
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RolePayroll, http.MethodPost, "/api/v1/payruns", []byte(`{"month":1,"year":2024}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, got.Month)
	assert.Equal(t, 2024, got.Year)

	resp := decodeBody(t, w)
	assert.True(t, resp["success"].(bool))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, testPayrunID, data["id"])
	assert.Equal(t, "DRAFT", data["status"])
}

// Test CreatePayrun - Invalid JSON
func TestPayrollHandler_CreatePayrun_InvalidJSON(t *testing.T) {
	f := newRouterFixture(&stubPayrollService{})

	w := f.do(t, user.RolePayroll, http.MethodPost, "/api/v1/payruns", []byte("invalid json"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Test CreatePayrun - Validation and conflict errors
func TestPayrollHandler_CreatePayrun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "month", Message: "must be between 1 and 12"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"duplicate", payroll.ErrDuplicatePayrun, http.StatusConflict, "CONFLICT"},
		{"unexpected", fmt.Errorf("dial tcp: connection refused"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubPayrollService{
				createPayrun: func(payroll.CreatePayrunRequest) (payroll.PayrunResponse, error) {
					return payroll.PayrunResponse{}, tt.err
				},
			}
			f := newRouterFixture(svc)

			w := f.do(t, user.RoleOwner, http.MethodPost, "/api/v1/payruns", []byte(`{"month":13,"year":2024}`))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

// Test ListPayruns - query parameters and pagination meta
func TestPayrollHandler_ListPayruns(t *testing.T) {
	var got payroll.PayrunFilter
	svc := &stubPayrollService{
		listPayruns: func(filter payroll.PayrunFilter) (payroll.ListPayrunResponse, error) {
			got = filter
			return payroll.ListPayrunResponse{
				Data:       []payroll.PayrunResponse{{ID: testPayrunID, Month: 1, Year: 2024}},
				TotalCount: 21,
				Page:       filter.Page,
				Limit:      filter.Limit,
			}, nil
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RoleManager, http.MethodGet, "/api/v1/payruns?year=2024&month=1&status=PAID&page=2&limit=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Month)
	require.NotNil(t, got.Year)
	require.NotNil(t, got.Status)
	assert.Equal(t, 1, *got.Month)
	assert.Equal(t, 2024, *got.Year)
	assert.Equal(t, "PAID", *got.Status)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 10, got.Limit)

	meta := decodeBody(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["page"])
	assert.Equal(t, float64(21), meta["total_items"])
	assert.Equal(t, float64(3), meta["total_pages"])
}

// Test ListPayruns - non-numeric filter
func TestPayrollHandler_ListPayruns_InvalidQuery(t *testing.T) {
	f := newRouterFixture(&stubPayrollService{})

	w := f.do(t, user.RolePayroll, http.MethodGet, "/api/v1/payruns?month=january", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeBody(t, w)
	details := resp["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Contains(t, details, "month")
}

// Test GetPayrun - malformed and unknown IDs
func TestPayrollHandler_GetPayrun(t *testing.T) {
	svc := &stubPayrollService{
		getPayrun: func(id string) (payroll.PayrunResponse, error) {
			return payroll.PayrunResponse{}, payroll.ErrPayrunNotFound
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RolePayroll, http.MethodGet, "/api/v1/payruns/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, user.RolePayroll, http.MethodGet, "/api/v1/payruns/"+testPayrunID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

// Test ProcessPayrun - domain-state errors map to 409
func TestPayrollHandler_ProcessPayrun_Conflicts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"concurrent modification", payroll.ErrConcurrentModification},
		{"invalid transition", fmt.Errorf("payrun %s cannot move from PAID to PROCESSING: %w", testPayrunID, payroll.ErrInvalidPayrunTransition)},
		{"locked", payroll.ErrPayrunLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubPayrollService{
				processPayrun: func(string) (payroll.PayrunResponse, error) { return payroll.PayrunResponse{}, tt.err },
			}
			f := newRouterFixture(svc)

			w := f.do(t, user.RolePayroll, http.MethodPost, "/api/v1/payruns/"+testPayrunID+"/process", nil)

			assert.Equal(t, http.StatusConflict, w.Code)
		})
	}
}

// Test error responses - the failing payrun or payslip is named in the message
func TestPayrollHandler_ErrorsNameFailingRecord(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       []byte
		svc        *stubPayrollService
		wantStatus int
		wantID     string
	}{
		{
			name:   "payrun locked",
			method: http.MethodDelete,
			path:   "/api/v1/payruns/" + testPayrunID,
			svc: &stubPayrollService{
				deletePayrun: func(id string) error {
					return fmt.Errorf("payrun %s is PAID: %w", id, payroll.ErrPayrunLocked)
				},
			},
			wantStatus: http.StatusConflict,
			wantID:     testPayrunID,
		},
		{
			name:   "concurrent modification",
			method: http.MethodPost,
			path:   "/api/v1/payruns/" + testPayrunID + "/process",
			svc: &stubPayrollService{
				processPayrun: func(id string) (payroll.PayrunResponse, error) {
					return payroll.PayrunResponse{}, fmt.Errorf("payrun %s: %w", id, payroll.ErrConcurrentModification)
				},
			},
			wantStatus: http.StatusConflict,
			wantID:     testPayrunID,
		},
		{
			name:   "payslip locked",
			method: http.MethodPatch,
			path:   "/api/v1/payslips/" + testPayslipID + "/deductions",
			body:   []byte(`{"tds_deduction":"100"}`),
			svc: &stubPayrollService{
				updatePayslipDeductions: func(req payroll.UpdatePayslipDeductionsRequest) (payroll.PayslipResponse, error) {
					return payroll.PayslipResponse{}, fmt.Errorf("payslip %s: %w", req.ID, payroll.ErrPayslipLocked)
				},
			},
			wantStatus: http.StatusConflict,
			wantID:     testPayslipID,
		},
		{
			name:   "payrun not found",
			method: http.MethodGet,
			path:   "/api/v1/payruns/" + testPayrunID,
			svc: &stubPayrollService{
				getPayrun: func(id string) (payroll.PayrunResponse, error) {
					return payroll.PayrunResponse{}, fmt.Errorf("payrun %s: %w", id, payroll.ErrPayrunNotFound)
				},
			},
			wantStatus: http.StatusNotFound,
			wantID:     testPayrunID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(tt.svc)

			w := f.do(t, user.RolePayroll, tt.method, tt.path, tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			resp := decodeBody(t, w)
			message := resp["error"].(map[string]interface{})["message"].(string)
			assert.Contains(t, message, tt.wantID)
		})
	}
}

// Test ProcessPayrun - Success
func TestPayrollHandler_ProcessPayrun_Success(t *testing.T) {
	var gotID string
	svc := &stubPayrollService{
		processPayrun: func(id string) (payroll.PayrunResponse, error) {
			gotID = id
			return payroll.PayrunResponse{
				ID:           id,
				Status:       "PROCESSED",
				TotalNetWage: decimal.RequireFromString("46800.00"),
				Warnings:     []string{"Employee Meera Nair (EMP003) has no salary structure as of 2024-01-31"},
			}, nil
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RolePayroll, http.MethodPost, "/api/v1/payruns/"+testPayrunID+"/process", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testPayrunID, gotID)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "PROCESSED", data["status"])
	assert.Equal(t, "46800", data["total_net_wage"])
	assert.Len(t, data["warnings"], 1)
}

// Test MarkPayrunPaid - approve permission is enough
func TestPayrollHandler_MarkPayrunPaid(t *testing.T) {
	svc := &stubPayrollService{
		markPayrunPaid: func(id string) (payroll.PayrunResponse, error) {
			return payroll.PayrunResponse{ID: id, Status: "PAID"}, nil
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RoleOwner, http.MethodPost, "/api/v1/payruns/"+testPayrunID+"/pay", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

// Test ExportPayrunRegister - CSV download
func TestPayrollHandler_ExportPayrunRegister(t *testing.T) {
	svc := &stubPayrollService{
		exportPayrunRegister: func(id string, w io.Writer) error {
			_, err := io.WriteString(w, "employee_code,net_salary\nEMP001,46800.00\n")
			return err
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RolePayroll, http.MethodGet, "/api/v1/payruns/"+testPayrunID+"/register.csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "payrun-"+testPayrunID+"-register.csv")
	assert.Equal(t, "employee_code,net_salary\nEMP001,46800.00\n", w.Body.String())
}

// Test ExportPayrunRegister - errors still answer with JSON
func TestPayrollHandler_ExportPayrunRegister_NotFound(t *testing.T) {
	svc := &stubPayrollService{
		exportPayrunRegister: func(string, io.Writer) error { return payroll.ErrPayrunNotFound },
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RolePayroll, http.MethodGet, "/api/v1/payruns/"+testPayrunID+"/register.csv", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

// ===== PAYSLIP TESTS =====

// Test UpdatePayslipDeductions - path ID and body reach the service
func TestPayrollHandler_UpdatePayslipDeductions(t *testing.T) {
	var got payroll.UpdatePayslipDeductionsRequest
	svc := &stubPayrollService{
		updatePayslipDeductions: func(req payroll.UpdatePayslipDeductionsRequest) (payroll.PayslipResponse, error) {
			got = req
			return payroll.PayslipResponse{ID: req.ID, TDSDeduction: *req.TDSDeduction}, nil
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RolePayroll, http.MethodPatch, "/api/v1/payslips/"+testPayslipID+"/deductions", []byte(`{"tds_deduction":"1250.50"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testPayslipID, got.ID)
	require.NotNil(t, got.TDSDeduction)
	assert.True(t, decimal.RequireFromString("1250.50").Equal(*got.TDSDeduction))
	assert.Nil(t, got.OtherDeductions)
}

// Test UpdatePayslipDeductions - payrun already paid
func TestPayrollHandler_UpdatePayslipDeductions_Locked(t *testing.T) {
	svc := &stubPayrollService{
		updatePayslipDeductions: func(payroll.UpdatePayslipDeductionsRequest) (payroll.PayslipResponse, error) {
			return payroll.PayslipResponse{}, payroll.ErrPayslipLocked
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RolePayroll, http.MethodPatch, "/api/v1/payslips/"+testPayslipID+"/deductions", []byte(`{"tds_deduction":100}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, w))
}

// ===== SALARY STRUCTURE TESTS =====

// Test CreateSalaryStructure - employee ID comes from the path
func TestPayrollHandler_CreateSalaryStructure(t *testing.T) {
	var got payroll.CreateSalaryStructureRequest
	svc := &stubPayrollService{
		createSalaryStructure: func(req payroll.CreateSalaryStructureRequest) (payroll.SalaryStructureResponse, error) {
			got = req
			return payroll.SalaryStructureResponse{EmployeeID: req.EmployeeID, EffectiveFrom: req.EffectiveFrom}, nil
		},
	}
	f := newRouterFixture(svc)
	body := []byte(`{"monthly_wage":50000,"effective_from":"2024-01-01","percentages":{"working_days_per_week":6}}`)

	w := f.do(t, user.RoleOwner, http.MethodPost, "/api/v1/employees/"+testEmployeeID+"/salary-structures", body)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, testEmployeeID, got.EmployeeID)
	assert.Equal(t, "2024-01-01", got.EffectiveFrom)
	assert.True(t, decimal.NewFromInt(50000).Equal(got.MonthlyWage))
	require.NotNil(t, got.Percentages)
	require.NotNil(t, got.Percentages.WorkingDaysPerWeek)
	assert.Equal(t, 6, *got.Percentages.WorkingDaysPerWeek)
	assert.Nil(t, got.Percentages.BasicPercentage)
}

// Test CreateSalaryStructure - structure already used by a payslip
func TestPayrollHandler_CreateSalaryStructure_InUse(t *testing.T) {
	svc := &stubPayrollService{
		createSalaryStructure: func(payroll.CreateSalaryStructureRequest) (payroll.SalaryStructureResponse, error) {
			return payroll.SalaryStructureResponse{}, payroll.ErrSalaryStructureInUse
		},
	}
	f := newRouterFixture(svc)

	w := f.do(t, user.RolePayroll, http.MethodPost, "/api/v1/employees/"+testEmployeeID+"/salary-structures", []byte(`{"monthly_wage":50000,"effective_from":"2024-01-01"}`))

	assert.Equal(t, http.StatusConflict, w.Code)
}
