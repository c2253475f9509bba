package infra

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/dto"

	"github.com/go-pdf/fpdf"
)

// RenderSessionReportPDF prints a session's reconciliation slip on
// receipt-width paper: opening float, declared tenders, expected total and
// variance, then the movement ledger totals.
func RenderSessionReportPDF(rep *dto.SessionReportResponse) ([]byte, error) {
	s := rep.Session

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: 200},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(true, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8
	labelW := contentW * 0.62
	valueW := contentW - labelW

	row := func(label, value string) {
		pdf.CellFormat(labelW, 4.5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 4.5, value, "", 1, "R", false, 0, "")
	}
	rule := func() {
		pdf.Ln(1.5)
		pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
		pdf.Ln(1.5)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Register %s", s.CashRegisterCode), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, rep.RegisterName, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Session #%d - %s", s.ID, s.Status), "", 1, "C", false, 0, "")
	rule()

	pdf.SetFont("Helvetica", "", 7)
	row("Operator", rep.OperatorName)
	row("Warehouse", fmt.Sprintf("%d", rep.WarehouseID))
	row("Opened", s.OpeningAt)
	if s.ClosingAt != nil {
		row("Closed", *s.ClosingAt)
	}
	row("Opening float", s.OpeningAmount.StringFixed(2))
	rule()

	// ── Declared tenders ─────────────────────────────────────────────────────
	if len(s.ClosingPayments) > 0 {
		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(contentW, 4.5, "Declared", "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		for _, p := range s.ClosingPayments {
			row(p.Method, p.ReportedAmount.StringFixed(2))
		}
	}
	if len(s.ClosingDenominations) > 0 {
		pdf.Ln(1)
		for _, d := range s.ClosingDenominations {
			row(fmt.Sprintf("  %s %s x %s", d.Kind, d.UnitValue.StringFixed(2), d.Quantity.String()),
				d.UnitValue.Mul(d.Quantity).StringFixed(2))
		}
	}

	// ── Reconciliation ───────────────────────────────────────────────────────
	if s.ClosingAmount != nil {
		rule()
		row("Expected", s.ClosingAmount.StringFixed(2))
		if s.ReportedTotal != nil {
			row("Reported", s.ReportedTotal.StringFixed(2))
		}
		if s.Difference != nil {
			pdf.SetFont("Helvetica", "B", 9)
			row("Difference", s.Difference.StringFixed(2))
			pdf.SetFont("Helvetica", "", 7)
		}
	}
	if s.CancelReason != nil {
		rule()
		row("Cancelled", *s.CancelReason)
	}

	// ── Ledger ───────────────────────────────────────────────────────────────
	rule()
	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(contentW, 4.5, fmt.Sprintf("Ledger (%d movements)", rep.MovementCount), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	methods := make([]string, 0, len(rep.TotalsByMethod))
	for m := range rep.TotalsByMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	for _, m := range methods {
		row(m, rep.TotalsByMethod[m].StringFixed(2))
	}
	pdf.SetFont("Helvetica", "B", 8)
	row("Ledger total", rep.LedgerTotal.StringFixed(2))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}
