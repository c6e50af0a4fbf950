// Package export renders a household's expense history and debt position
// into shareable formats: CSV for spreadsheets, plain text for messages.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hometab/hometab/internal/expense"
	"github.com/hometab/hometab/internal/receipt"
)

// ExpenseLister is the slice of the expense service the exporter needs.
type ExpenseLister interface {
	List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
}

type Service struct {
	expenses ExpenseLister
}

func NewService(expenses ExpenseLister) *Service {
	return &Service{expenses: expenses}
}

// csvHeader is the column order of exported expense files.
var csvHeader = []string{"Date", "Merchant", "Category", "Amount"}

// ExportCSV writes the expenses matching the filter to w as CSV,
// oldest first as returned by the store. Amounts are decimal units,
// not cents, so the file opens cleanly in a spreadsheet.
func (s *Service) ExportCSV(ctx context.Context, filter expense.ListFilter, w io.Writer) error {
	expenses, err := s.expenses.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing expenses: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, e := range expenses {
		row := []string{
			e.Date.Format("2006-01-02"),
			e.Merchant,
			string(e.Category),
			fmt.Sprintf("%.2f", float64(e.Amount)/100.0),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing expense %s: %w", e.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// SettleUpBody renders per-participant debt summaries as a plain-text
// digest suitable for pasting into a group chat.
func (s *Service) SettleUpBody(summaries []*receipt.Summary) string {
	var sb strings.Builder

	for _, sum := range summaries {
		owed := float64(sum.TotalOwed) / 100.0
		owedTo := float64(sum.TotalOwedTo) / 100.0
		net := owedTo - owed

		sign := "+"
		if net < 0 {
			sign = "-"
			net = -net
		}

		sb.WriteString(fmt.Sprintf("* %s | owes %.2f | is owed %.2f | net %s%.2f | %d open\n",
			sum.ParticipantID, owed, owedTo, sign, net, len(sum.OpenDebts)))
	}

	return sb.String()
}
