package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/plan"
)

// TableStyle selects the table border
type TableStyle string

const (
	TableSingleBorder TableStyle = "SINGLE_BORDER"
	TablePlainColumns TableStyle = "PLAIN_COLUMNS"
)

// ParseTableStyle validates a --table value
func ParseTableStyle(s string) (TableStyle, error) {
	switch TableStyle(s) {
	case "", TableSingleBorder:
		return TableSingleBorder, nil
	case TablePlainColumns:
		return TablePlainColumns, nil
	default:
		return "", &models.ValidationError{Field: "table", Message: fmt.Sprintf("unknown table style %q (valid: SINGLE_BORDER, PLAIN_COLUMNS)", s)}
	}
}

var tableColumns = []string{"source", "sync", "dest"}

// TableFormatter renders a diff as a three column table
type TableFormatter struct {
	Theme  Theme
	Style  TableStyle
	SortBy string // column name, empty keeps relation order
}

// Name implements Formatter
func (f *TableFormatter) Name() string { return "table" }

// FormatDiff implements Formatter. Rows are grouped: differing and
// unverified files first, then source only, destination only and equal.
func (f *TableFormatter) FormatDiff(w io.Writer, view DiffView) error {
	rows := diffRows(view.Result)
	if f.SortBy != "" {
		col := -1
		for i, c := range tableColumns {
			if c == f.SortBy {
				col = i
			}
		}
		if col < 0 {
			return &models.ValidationError{Field: "sort", Message: fmt.Sprintf("unknown column %q (valid: %s)", f.SortBy, strings.Join(tableColumns, ", "))}
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i][col] < rows[j][col] })
	}

	border := lipgloss.NormalBorder()
	if f.Style == TablePlainColumns {
		border = lipgloss.HiddenBorder()
	}

	t := table.New().
		Border(border).
		BorderStyle(f.Theme.border).
		Headers(tableColumns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return f.Theme.header.Padding(0, 1)
			}
			if col == 1 {
				return f.Theme.style(rows[row][1]).Padding(0, 1).Align(lipgloss.Center)
			}
			return cell
		})

	_, err := fmt.Fprintln(w, t.String())
	return err
}

func diffRows(res models.DiffResult) [][]string {
	var rows [][]string
	for _, r := range []models.Relation{models.RelationDiffers, models.RelationUnverified} {
		for _, p := range res.Get(r) {
			rows = append(rows, []string{p, string(r), p})
		}
	}
	for _, p := range res.Get(models.RelationSourceOnly) {
		rows = append(rows, []string{p, string(models.RelationSourceOnly), ""})
	}
	for _, p := range res.Get(models.RelationDestOnly) {
		rows = append(rows, []string{"", string(models.RelationDestOnly), p})
	}
	for _, p := range res.Get(models.RelationEqual) {
		rows = append(rows, []string{p, string(models.RelationEqual), p})
	}
	return rows
}

// WritePlan prints what a copy or move plan will do, one file per line:
// "->" for new files, "=>" for overwrites, then the files left alone
func WritePlan(w io.Writer, theme Theme, p *plan.Plan) error {
	type line struct{ path, symbol string }
	var lines []line
	for _, f := range p.Files() {
		symbol := string(models.RelationSourceOnly)
		if p.Overwrites(f) {
			symbol = overwrite
		}
		lines = append(lines, line{f, symbol})
	}
	if p.Diff != nil {
		for _, r := range []models.Relation{models.RelationUnverified, models.RelationEqual} {
			for _, f := range p.Diff.Get(r) {
				lines = append(lines, line{f, string(r)})
			}
		}
	}

	width := 0
	for _, l := range lines {
		if n := lipgloss.Width(l.path); n > width {
			width = n
		}
	}
	for _, l := range lines {
		pad := strings.Repeat(" ", width-lipgloss.Width(l.path))
		if _, err := fmt.Fprintf(w, "%s%s %s %s\n", l.path, pad, theme.Symbol(l.symbol), l.path); err != nil {
			return err
		}
	}
	return nil
}

// WriteRemovePlan prints one "rm <file>" line per file of a remove plan
func WriteRemovePlan(w io.Writer, p *plan.Plan) error {
	for _, f := range p.Files() {
		if _, err := fmt.Fprintf(w, "rm %s\n", f); err != nil {
			return err
		}
	}
	return nil
}
