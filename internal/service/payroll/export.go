package payroll

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/payroll"
	"github.com/go-pdf/fpdf"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// ExportPayrunRegister writes one CSV row per payslip, ordered by employee code.
func (s *PayrollServiceImpl) ExportPayrunRegister(ctx context.Context, id string, w io.Writer) error {
	run, err := s.payrunRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	payslips, err := s.payslipRepo.ListByPayrun(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to list payslips of payrun %s: %w", id, err)
	}
	sort.Slice(payslips, func(i, j int) bool {
		return payslips[i].EmployeeCode < payslips[j].EmployeeCode
	})

	rows := make([]payroll.PayrunRegisterRow, 0, len(payslips))
	for _, p := range payslips {
		rows = append(rows, registerRow(p))
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write register of payrun %s: %w", id, err)
	}
	return nil
}

func (s *PayrollServiceImpl) RenderPayslipPDF(ctx context.Context, id string, w io.Writer) error {
	payslip, err := s.payslipRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	run, err := s.payrunRepo.GetByID(ctx, payslip.PayrunID)
	if err != nil {
		return fmt.Errorf("failed to get payrun of payslip %s: %w", id, err)
	}

	if err := writePayslipPDF(run, payslip, w); err != nil {
		return fmt.Errorf("failed to render payslip %s: %w", id, err)
	}
	return nil
}

type pdfLine struct {
	label  string
	amount decimal.Decimal
}

func writePayslipPDF(run payroll.Payrun, p payroll.Payslip, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	marginL, marginT, marginR, _ := pdf.GetMargins()
	contentW := pageW - marginL - marginR
	colHalf := contentW / 2

	// Header bar
	pdf.SetFillColor(30, 30, 30)
	pdf.Rect(marginL, marginT, contentW, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(marginL+2, marginT+1.5)
	pdf.CellFormat(colHalf, 7, "PAYSLIP", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	period := time.Month(run.Month).String() + " " + fmt.Sprint(run.Year)
	pdf.CellFormat(colHalf-4, 7, period, "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	y := marginT + 14

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(contentW, 5.5, "EMPLOYEE INFORMATION", "LRT", 1, "L", true, 0, "")
	y += 5.5

	details := [][2]string{
		{"Name: " + p.EmployeeName, "Code: " + p.EmployeeCode},
		{"Department: " + deref(p.Department), "Location: " + deref(p.Location)},
		{"PAN: " + deref(p.PAN), "UAN: " + deref(p.UAN)},
		{"Bank account: " + deref(p.BankAccount), "Pay period: " + run.PayPeriodStart.Format(dateLayout) + " to " + run.PayPeriodEnd.Format(dateLayout)},
	}
	pdf.SetFont("Helvetica", "", 9)
	for i, d := range details {
		left, right := "L", "R"
		if i == len(details)-1 {
			left, right = "LB", "RB"
		}
		pdf.SetXY(marginL, y)
		pdf.CellFormat(colHalf, 6, d[0], left, 0, "L", false, 0, "")
		pdf.CellFormat(colHalf, 6, d[1], right, 1, "L", false, 0, "")
		y += 6
	}

	y += 4
	pdf.SetXY(marginL, y)
	pdf.SetFont("Helvetica", "", 8.5)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Working days: %d   Present: %s   Paid time off: %s   Absent: %s   Worked: %s",
		p.TotalWorkingDays, p.PresentDays.StringFixed(1), p.PaidTimeOff.StringFixed(1), p.AbsentDays.StringFixed(1), p.WorkedDays.StringFixed(1)),
		"", 1, "L", false, 0, "")
	y += 10

	earnings := []pdfLine{
		{"Basic salary", p.Earnings.BasicSalary},
		{"House rent allowance", p.Earnings.HRA},
		{"Standard allowance", p.Earnings.StandardAllowance},
		{"Performance bonus", p.Earnings.PerformanceBonus},
		{"Leave travel allowance", p.Earnings.LTA},
		{"Fixed allowance", p.Earnings.FixedAllowance},
	}
	deductions := []pdfLine{
		{"Provident fund", p.PFEmployee},
		{"Professional tax", p.ProfessionalTax},
		{"TDS", p.TDSDeduction},
		{"Other deductions", p.OtherDeductions},
	}

	labelW := colHalf * 0.62
	amountW := colHalf - labelW

	pdf.SetFillColor(30, 30, 30)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(labelW, 7, "Earnings", "1", 0, "L", true, 0, "")
	pdf.CellFormat(amountW, 7, "Amount", "1", 0, "R", true, 0, "")
	pdf.CellFormat(labelW, 7, "Deductions", "1", 0, "L", true, 0, "")
	pdf.CellFormat(amountW, 7, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	y += 7

	pdf.SetFont("Helvetica", "", 9)
	rows := max(len(earnings), len(deductions))
	for i := 0; i < rows; i++ {
		pdf.SetXY(marginL, y)
		drawLine(pdf, earnings, i, labelW, amountW, 0)
		drawLine(pdf, deductions, i, labelW, amountW, 1)
		y += 6
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(labelW, 7, "Gross salary", "1", 0, "L", true, 0, "")
	pdf.CellFormat(amountW, 7, p.GrossSalary.StringFixed(2), "1", 0, "R", true, 0, "")
	pdf.CellFormat(labelW, 7, "Total deductions", "1", 0, "L", true, 0, "")
	pdf.CellFormat(amountW, 7, p.TotalDeductions.StringFixed(2), "1", 1, "R", true, 0, "")
	y += 11

	pdf.SetXY(marginL, y)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 8, "Net salary: "+p.NetSalary.StringFixed(2), "1", 1, "R", false, 0, "")
	y += 10

	pdf.SetXY(marginL, y)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, "Employer provident fund contribution: "+p.PFEmployer.StringFixed(2), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func drawLine(pdf *fpdf.Fpdf, lines []pdfLine, i int, labelW, amountW float64, ln int) {
	if i >= len(lines) {
		pdf.CellFormat(labelW, 6, "", "1", 0, "L", false, 0, "")
		pdf.CellFormat(amountW, 6, "", "1", ln, "R", false, 0, "")
		return
	}
	pdf.CellFormat(labelW, 6, lines[i].label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(amountW, 6, lines[i].amount.StringFixed(2), "1", ln, "R", false, 0, "")
}
