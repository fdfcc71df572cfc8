package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/xoelrdgz/ironwatch/internal/domain"
	"github.com/xoelrdgz/ironwatch/pkg/sanitize"
)

// TableRenderer prints suspects and block records as bordered tables.
// Addresses and reasons come from logs and the reputation service, so every
// cell is sanitized before it reaches the terminal.
type TableRenderer struct {
	w      io.Writer
	styles styles
}

func NewTableRenderer(w io.Writer) *TableRenderer {
	return &TableRenderer{w: w, styles: newStyles(lipgloss.NewRenderer(w))}
}

// Report implements ports.SuspectReporter.
func (r *TableRenderer) Report(ctx context.Context, runID string, suspects []domain.Suspect) error {
	return r.RenderSuspects(suspects)
}

func (r *TableRenderer) RenderSuspects(suspects []domain.Suspect) error {
	if len(suspects) == 0 {
		_, err := fmt.Fprintln(r.w, r.styles.summary.Render("No suspects found"))
		return err
	}

	rows := make([][]string, 0, len(suspects))
	for i, s := range suspects {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			sanitize.Address(s.Address),
			cell(s.Rule),
			cell(s.Reason),
		})
	}

	t := r.newTable("#", "ADDRESS", "RULE", "REASON").Rows(rows...)
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return r.styles.header
		}
		switch col {
		case 0:
			return r.styles.muted
		case 1:
			return r.styles.address
		case 2:
			return r.styles.rule
		default:
			return r.styles.reason
		}
	})

	_, err := fmt.Fprintf(r.w, "%s\n%s\n", t.Render(),
		r.styles.summary.Render(fmt.Sprintf("%d suspect(s)", len(suspects))))
	return err
}

func (r *TableRenderer) RenderRecords(records []domain.BlockRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(r.w, r.styles.summary.Render("No blocked addresses"))
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			sanitize.Address(rec.Address),
			cell(rec.Reason),
			rec.CreatedAt.Local().Format(time.DateTime),
		})
	}

	t := r.newTable("ID", "ADDRESS", "REASON", "BLOCKED AT").Rows(rows...)
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return r.styles.header
		}
		switch col {
		case 1:
			return r.styles.address
		case 2:
			return r.styles.reason
		default:
			return r.styles.muted
		}
	})

	_, err := fmt.Fprintln(r.w, t.Render())
	return err
}

func (r *TableRenderer) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.border).
		Headers(headers...)
}

func cell(s string) string {
	return sanitize.String(sanitize.ForTerminal(s), sanitize.DefaultMaxDisplayLength)
}
