package importer

import (
	"fmt"
	"io"

	"github.com/hometab/hometab/internal/expense"
	"github.com/hometab/hometab/internal/importer/bankcsv"
)

type Service struct {
	bankImporter Importer
}

func NewService() *Service {
	return &Service{
		bankImporter: bankcsv.NewParser(),
	}
}

func (s *Service) Import(source Source, r io.Reader) ([]expense.CreateParams, error) {
	var importer Importer

	switch source {
	case SourceBankCSV:
		importer = s.bankImporter
	default:
		return nil, fmt.Errorf("unknown source: %s", source)
	}

	return importer.Parse(r)
}
