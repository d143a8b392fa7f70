package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"quizbank/internal/question"
)

const (
	SheetSummary    = "Summary"
	SheetDuplicates = "Duplicates"
	SheetAnomalies  = "Anomalies"
	SheetRepairs    = "Repairs"
)

var issueHeaders = []string{"id", "type", "topic", "subtopic", "check", "reason", "prompt"}

// ExportIssuesExcel builds a workbook with the summary, the safe-to-delete
// duplicate list, the manual-fix anomaly list and applied repairs.
func ExportIssuesExcel(summary BankSummary, issues, repairs []question.ValidationIssue) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	writeSummarySheet(f, summary)

	var dups, anomalies []question.ValidationIssue
	for _, is := range issues {
		if is.Category == question.CategoryDuplicate {
			dups = append(dups, is)
		} else {
			anomalies = append(anomalies, is)
		}
	}
	for _, s := range []struct {
		name  string
		items []question.ValidationIssue
	}{
		{name: SheetDuplicates, items: dups},
		{name: SheetAnomalies, items: anomalies},
		{name: SheetRepairs, items: repairs},
	} {
		if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", s.name, err)
		}
		writeIssueSheet(f, s.name, s.items)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, s BankSummary) {
	rows := [][]any{
		{"metric", "value"},
		{"valid", s.Valid},
		{"excluded", s.Excluded},
		{"issues", s.IssueCount},
		{"repairs", s.RepairCount},
	}
	for _, c := range s.ByKind {
		rows = append(rows, []any{"kind: " + c.Label, c.Count})
	}
	for _, c := range s.BySubtype {
		rows = append(rows, []any{"subtype: " + c.Label, c.Count})
	}
	for _, g := range s.ByGroup {
		rows = append(rows, []any{"group: " + g.Topic + " / " + g.Subtopic, g.Count})
	}
	for _, c := range s.ByCheck {
		rows = append(rows, []any{"check: " + c.Label, c.Count})
	}
	setRows(f, SheetSummary, rows)
	_ = f.SetColWidth(SheetSummary, "A", "A", 40)
	_ = f.SetColWidth(SheetSummary, "B", "B", 12)
}

func writeIssueSheet(f *excelize.File, sheet string, items []question.ValidationIssue) {
	rows := make([][]any, 0, len(items)+1)
	header := make([]any, 0, len(issueHeaders))
	for _, h := range issueHeaders {
		header = append(header, h)
	}
	rows = append(rows, header)
	for _, is := range items {
		rows = append(rows, []any{is.ID, is.KindLabel, is.Topic, is.Subtopic, string(is.Check), is.Reason, is.Prompt})
	}
	setRows(f, sheet, rows)
	_ = f.SetColWidth(sheet, "A", "E", 18)
	_ = f.SetColWidth(sheet, "F", "G", 48)
}

func setRows(f *excelize.File, sheet string, rows [][]any) {
	for r, values := range rows {
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
}
