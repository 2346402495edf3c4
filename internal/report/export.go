package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/backend-resto/internal/sales"
)

// BOM is the UTF-8 byte order mark written before CSV exports so Excel detects the encoding.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	sheetSummary      = "Summary"
	sheetTransactions = "Transactions"
)

var transactionColumns = []string{
	"Transaction ID",
	"Created At",
	"Branch ID",
	"Order Type",
	"Payment Mode",
	"Staff",
	"Line Count",
	"Taxable Amount",
	"CGST",
	"SGST",
	"GST",
	"Total",
}

func transactionRow(tx sales.Transaction) []string {
	s := tx.Summary
	return []string{
		tx.ID.String(),
		tx.CreatedAt.UTC().Format(time.RFC3339),
		tx.BranchID.String(),
		tx.OrderType.Label(),
		tx.PaymentMode,
		tx.StaffID,
		strconv.Itoa(len(s.Items)),
		formatMoney(s.TotalBaseAmount),
		formatMoney(s.TotalCGSTAmount),
		formatMoney(s.TotalSGSTAmount),
		formatMoney(s.TotalGSTAmount),
		formatMoney(s.TotalFinalAmount),
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteCSV writes one row per transaction, prefixed with a BOM.
func WriteCSV(w io.Writer, txs []sales.Transaction) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionColumns); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := cw.Write(transactionRow(tx)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a Summary sheet (totals, order types and
// GST slabs) and a Transactions sheet.
func WriteXLSX(w io.Writer, rep Report, txs []sales.Transaction) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetTransactions); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	sw := sheetWriter{f: f, sheet: sheetSummary, bold: bold}
	sw.header("Period", rep.From.UTC().Format(time.RFC3339), rep.To.UTC().Format(time.RFC3339))
	sw.row("Transactions", rep.Transactions)
	sw.row("Reconciliation gaps", rep.ReconciliationGaps)
	sw.skip()
	sw.header("Order Type", "Transactions", "Taxable Amount", "CGST", "SGST", "GST", "Total")
	sw.row("All", rep.Transactions, rep.Totals.Base, rep.Totals.CGST, rep.Totals.SGST, rep.Totals.GST, rep.Totals.Final)
	for _, ot := range rep.ByOrderType {
		sw.row(ot.Label, ot.Transactions, ot.Base, ot.CGST, ot.SGST, ot.GST, ot.Final)
	}
	sw.skip()
	sw.header("CGST %", "SGST %", "Taxable Amount", "CGST", "SGST", "GST", "Total")
	for _, slab := range rep.BySlab {
		sw.row(slab.CGSTPercent, slab.SGSTPercent, slab.Taxable, slab.CGST, slab.SGST, slab.GST, slab.Final)
	}
	if sw.err != nil {
		return sw.err
	}

	tw := sheetWriter{f: f, sheet: sheetTransactions, bold: bold}
	header := make([]any, len(transactionColumns))
	for i, c := range transactionColumns {
		header[i] = c
	}
	tw.header(header...)
	for _, tx := range txs {
		s := tx.Summary
		tw.row(tx.ID.String(), tx.CreatedAt.UTC().Format(time.RFC3339), tx.BranchID.String(), tx.OrderType.Label(),
			tx.PaymentMode, tx.StaffID, len(s.Items),
			s.TotalBaseAmount, s.TotalCGSTAmount, s.TotalSGSTAmount, s.TotalGSTAmount, s.TotalFinalAmount)
	}
	if tw.err != nil {
		return tw.err
	}
	if err := f.SetColWidth(sheetTransactions, "A", "C", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSummary, "A", "A", 22); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// sheetWriter appends rows to a sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	bold  int
	next  int
	err   error
}

func (s *sheetWriter) cell() string {
	s.next++
	name, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil && s.err == nil {
		s.err = err
	}
	return name
}

func (s *sheetWriter) row(values ...any) {
	if s.err != nil {
		return
	}
	cell := s.cell()
	if err := s.f.SetSheetRow(s.sheet, cell, &values); err != nil {
		s.err = fmt.Errorf("write %s row %d: %w", s.sheet, s.next, err)
	}
}

func (s *sheetWriter) header(values ...any) {
	s.row(values...)
	if s.err != nil {
		return
	}
	end, err := excelize.CoordinatesToCellName(len(values), s.next)
	if err == nil {
		start, _ := excelize.CoordinatesToCellName(1, s.next)
		err = s.f.SetCellStyle(s.sheet, start, end, s.bold)
	}
	if err != nil {
		s.err = fmt.Errorf("style %s row %d: %w", s.sheet, s.next, err)
	}
}

func (s *sheetWriter) skip() {
	s.next++
}

// ContentType returns the response content type of an export format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// Filename returns the attachment name for a report over [from, to).
func Filename(format string, from, to time.Time) string {
	return fmt.Sprintf("sales_%s_%s.%s", from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"), format)
}
