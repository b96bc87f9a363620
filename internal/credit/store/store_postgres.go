package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"credito/internal/credit/models"
)

const selectColumns = `
	SELECT numero_credito, numero_nfse, data_constituicao, valor_issqn,
	       tipo_credito, simples_nacional, aliquota, valor_faturado,
	       valor_deducao, base_calculo
	FROM credito
`

// PostgresStore reads credit records from the credito table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var r models.Record
	err := row.Scan(
		&r.NumeroCredito,
		&r.NumeroNfse,
		&r.DataConstituicao,
		&r.ValorIssqn,
		&r.TipoCredito,
		&r.SimplesNacional,
		&r.Aliquota,
		&r.ValorFaturado,
		&r.ValorDeducao,
		&r.BaseCalculo,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// FindByNumeroNfse returns every record for the document ordered by insertion.
func (s *PostgresStore) FindByNumeroNfse(ctx context.Context, numeroNfse string) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`WHERE numero_nfse = $1 ORDER BY id`, numeroNfse)
	if err != nil {
		return nil, fmt.Errorf("query credits by nfse: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credits: %w", err)
	}
	return records, nil
}

// FindByNumeroCredito returns the record with the given credit number or ErrNotFound.
func (s *PostgresStore) FindByNumeroCredito(ctx context.Context, numeroCredito string) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+`WHERE numero_credito = $1`, numeroCredito)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find credit by numero: %w", err)
	}
	return r, nil
}

// Save upserts a record keyed by credit number.
func (s *PostgresStore) Save(ctx context.Context, r *models.Record) error {
	if r == nil {
		return fmt.Errorf("credit record is required")
	}
	query := `
		INSERT INTO credito (
			numero_credito, numero_nfse, data_constituicao, valor_issqn,
			tipo_credito, simples_nacional, aliquota, valor_faturado,
			valor_deducao, base_calculo
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (numero_credito) DO UPDATE SET
			numero_nfse = EXCLUDED.numero_nfse,
			data_constituicao = EXCLUDED.data_constituicao,
			valor_issqn = EXCLUDED.valor_issqn,
			tipo_credito = EXCLUDED.tipo_credito,
			simples_nacional = EXCLUDED.simples_nacional,
			aliquota = EXCLUDED.aliquota,
			valor_faturado = EXCLUDED.valor_faturado,
			valor_deducao = EXCLUDED.valor_deducao,
			base_calculo = EXCLUDED.base_calculo
	`
	_, err := s.db.ExecContext(ctx, query,
		r.NumeroCredito,
		r.NumeroNfse,
		r.DataConstituicao,
		r.ValorIssqn,
		r.TipoCredito,
		r.SimplesNacional,
		r.Aliquota,
		r.ValorFaturado,
		r.ValorDeducao,
		r.BaseCalculo,
	)
	if err != nil {
		return fmt.Errorf("save credit: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
