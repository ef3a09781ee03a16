package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/hris-payroll/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx, cfg.Database.MigrationsDir); err != nil {
		slog.Error("Error applying migrations", "error", err)
		os.Exit(1)
	}

	txManager := postgresql.NewTxManager(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	structureRepo := postgresql.NewSalaryStructureRepository(db)
	payrunRepo := postgresql.NewPayrunRepository(db)
	payslipRepo := postgresql.NewPayslipRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	payrollSvc := payrollService.NewPayrollService(
		txManager,
		structureRepo,
		payrunRepo,
		payslipRepo,
		employeeRepo,
		attendanceRepo,
		payrollService.Config{
			ProfessionalTaxThreshold: &cfg.Payroll.ProfessionalTaxThreshold,
			BatchSize:                cfg.Payroll.BatchSize,
			Workers:                  cfg.Payroll.Workers,
		},
	)

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(JWTService, payrollHandler, appHTTP.RouterOptions{
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		Env:            cfg.App.Env,
		LogLevel:       cfg.SlogLevel(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	slog.Info("Server running", "addr", srv.Addr, "env", cfg.App.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
	}
}
