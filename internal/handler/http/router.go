package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AllowedOrigins []string
	Env            string
	LogLevel       slog.Level
}

func NewRouter(JWTService jwt.Service, payrollHandler PayrollHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication and a payroll role
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RequirePayrollAccess)

			r.Route("/payruns", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.ListPayruns)
				r.With(middleware.RequirePermission(user.PermissionPayrollProcess)).Post("/", payrollHandler.CreatePayrun)

				r.Route("/{id}", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.GetPayrun)
					r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/register.csv", payrollHandler.ExportPayrunRegister)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionPayrollProcess))
						r.Delete("/", payrollHandler.DeletePayrun)
						r.Post("/process", payrollHandler.ProcessPayrun)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionPayrollApprove))
						r.Post("/validate", payrollHandler.ValidatePayrun)
						r.Post("/pay", payrollHandler.MarkPayrunPaid)
					})
				})
			})

			r.Route("/payslips/{id}", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.GetPayslip)
				r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/pdf", payrollHandler.DownloadPayslipPDF)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayslipEdit))
					r.Patch("/deductions", payrollHandler.UpdatePayslipDeductions)
					r.Post("/recalculate", payrollHandler.RecalculatePayslip)
				})
			})

			r.Route("/employees/{employeeId}/salary-structures", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionSalaryView)).Get("/", payrollHandler.ListSalaryStructures)
				r.With(middleware.RequirePermission(user.PermissionSalaryManage)).Post("/", payrollHandler.CreateSalaryStructure)
			})
		})
	})

	return r
}
