package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"credito/internal/credit/models"
)

type seedRecord struct {
	NumeroCredito    string        `json:"numeroCredito"`
	NumeroNfse       string        `json:"numeroNfse"`
	DataConstituicao models.Date   `json:"dataConstituicao"`
	ValorIssqn       models.Amount `json:"valorIssqn"`
	TipoCredito      string        `json:"tipoCredito"`
	SimplesNacional  bool          `json:"simplesNacional"`
	Aliquota         models.Amount `json:"aliquota"`
	ValorFaturado    models.Amount `json:"valorFaturado"`
	ValorDeducao     models.Amount `json:"valorDeducao"`
	BaseCalculo      models.Amount `json:"baseCalculo"`
}

// Saver is implemented by stores that accept seed data.
type Saver interface {
	Save(ctx context.Context, record *models.Record) error
}

// SeedFromFile loads a JSON array of records into the store and returns how many
// were saved. simplesNacional is a boolean in seed files.
func SeedFromFile(ctx context.Context, s Saver, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []seedRecord
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i, sr := range seeds {
		record := &models.Record{
			NumeroCredito:    sr.NumeroCredito,
			NumeroNfse:       sr.NumeroNfse,
			DataConstituicao: sr.DataConstituicao.Time,
			ValorIssqn:       sr.ValorIssqn.Decimal,
			TipoCredito:      sr.TipoCredito,
			SimplesNacional:  sr.SimplesNacional,
			Aliquota:         sr.Aliquota.Decimal,
			ValorFaturado:    sr.ValorFaturado.Decimal,
			ValorDeducao:     sr.ValorDeducao.Decimal,
			BaseCalculo:      sr.BaseCalculo.Decimal,
		}
		if err := s.Save(ctx, record); err != nil {
			return i, fmt.Errorf("seed record %s: %w", sr.NumeroCredito, err)
		}
	}
	return len(seeds), nil
}
