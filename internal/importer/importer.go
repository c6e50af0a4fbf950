package importer

import (
	"io"

	"github.com/hometab/hometab/internal/expense"
)

// Source identifies a supported expense-export format.
type Source string

const (
	SourceBankCSV Source = "bank_csv"
)

type Importer interface {
	Parse(r io.Reader) ([]expense.CreateParams, error)
}
