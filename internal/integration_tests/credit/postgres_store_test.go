//go:build integration

package credit

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"credito/internal/credit/models"
	"credito/internal/credit/store"
	"credito/internal/platform/postgres"
	"credito/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(s.pg.DB, store.Migrations, store.MigrationsDir))
	// second run is a no-op
	s.Require().NoError(postgres.Migrate(s.pg.DB, store.Migrations, store.MigrationsDir))
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "credito"))
}

func newRecord(numeroCredito, numeroNfse string, optante bool) *models.Record {
	return &models.Record{
		NumeroCredito:    numeroCredito,
		NumeroNfse:       numeroNfse,
		DataConstituicao: time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC),
		ValorIssqn:       decimal.RequireFromString("1500.75"),
		TipoCredito:      "ISSQN",
		SimplesNacional:  optante,
		Aliquota:         decimal.RequireFromString("5.00"),
		ValorFaturado:    decimal.RequireFromString("30000.00"),
		ValorDeducao:     decimal.RequireFromString("5000.00"),
		BaseCalculo:      decimal.RequireFromString("25000.00"),
	}
}

func (s *PostgresStoreSuite) TestFindByNumeroNfse() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newRecord("123456", "7891011", true)))
	s.Require().NoError(s.store.Save(ctx, newRecord("789012", "7891011", false)))
	s.Require().NoError(s.store.Save(ctx, newRecord("654321", "1122334", true)))

	records, err := s.store.FindByNumeroNfse(ctx, "7891011")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("123456", records[0].NumeroCredito)
	s.Equal("789012", records[1].NumeroCredito)
	s.True(records[0].ValorIssqn.Equal(decimal.RequireFromString("1500.75")))
	s.True(records[0].SimplesNacional)
	s.Equal("2024-02-25", records[0].DataConstituicao.Format("2006-01-02"))

	none, err := s.store.FindByNumeroNfse(ctx, "99999")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PostgresStoreSuite) TestFindByNumeroCredito() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newRecord("123456", "7891011", true)))

	record, err := s.store.FindByNumeroCredito(ctx, "123456")
	s.Require().NoError(err)
	s.Equal("7891011", record.NumeroNfse)

	_, err = s.store.FindByNumeroCredito(ctx, "000000")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSaveUpserts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newRecord("123456", "7891011", true)))

	updated := newRecord("123456", "7891011", false)
	updated.TipoCredito = "Outros"
	s.Require().NoError(s.store.Save(ctx, updated))

	record, err := s.store.FindByNumeroCredito(ctx, "123456")
	s.Require().NoError(err)
	s.Equal("Outros", record.TipoCredito)
	s.False(record.SimplesNacional)
}

func (s *PostgresStoreSuite) TestPing() {
	s.NoError(s.store.Ping(context.Background()))
}
