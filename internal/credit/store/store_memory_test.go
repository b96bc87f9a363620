package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"credito/internal/credit/models"
	"credito/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func record(numeroCredito, numeroNfse string) *models.Record {
	return &models.Record{
		NumeroCredito: numeroCredito,
		NumeroNfse:    numeroNfse,
		TipoCredito:   "ISSQN",
		ValorIssqn:    decimal.RequireFromString("1500.75"),
	}
}

func (s *InMemoryStoreSuite) TestFindByNumeroNfse() {
	s.Require().NoError(s.store.Save(s.ctx, record("123456", "7891011")))
	s.Require().NoError(s.store.Save(s.ctx, record("555", "other")))
	s.Require().NoError(s.store.Save(s.ctx, record("789012", "7891011")))

	s.Run("returns matches in insertion order", func() {
		records, err := s.store.FindByNumeroNfse(s.ctx, "7891011")
		s.Require().NoError(err)
		s.Require().Len(records, 2)
		s.Equal("123456", records[0].NumeroCredito)
		s.Equal("789012", records[1].NumeroCredito)
	})

	s.Run("unknown document yields empty slice", func() {
		records, err := s.store.FindByNumeroNfse(s.ctx, "missing")
		s.Require().NoError(err)
		s.NotNil(records)
		s.Empty(records)
	})

	s.Run("keys are matched exactly", func() {
		records, err := s.store.FindByNumeroNfse(s.ctx, " 7891011")
		s.Require().NoError(err)
		s.Empty(records)
	})
}

func (s *InMemoryStoreSuite) TestFindByNumeroCredito() {
	s.Require().NoError(s.store.Save(s.ctx, record("ABC 123", "nf")))

	s.Run("found", func() {
		r, err := s.store.FindByNumeroCredito(s.ctx, "ABC 123")
		s.Require().NoError(err)
		s.Equal("nf", r.NumeroNfse)
	})

	s.Run("not found returns sentinel", func() {
		_, err := s.store.FindByNumeroCredito(s.ctx, "99999")
		s.Require().Error(err)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *InMemoryStoreSuite) TestSaveReplacesByNumeroCredito() {
	s.Require().NoError(s.store.Save(s.ctx, record("1", "a")))
	s.Require().NoError(s.store.Save(s.ctx, record("1", "b")))

	r, err := s.store.FindByNumeroCredito(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal("b", r.NumeroNfse)

	old, err := s.store.FindByNumeroNfse(s.ctx, "a")
	s.Require().NoError(err)
	s.Empty(old)
}

func (s *InMemoryStoreSuite) TestReturnedRecordsAreCopies() {
	s.Require().NoError(s.store.Save(s.ctx, record("1", "a")))

	r, err := s.store.FindByNumeroCredito(s.ctx, "1")
	s.Require().NoError(err)
	r.NumeroNfse = "mutated"

	again, err := s.store.FindByNumeroCredito(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal("a", again.NumeroNfse)
}

func (s *InMemoryStoreSuite) TestSeedFromFile() {
	path := filepath.Join(s.T().TempDir(), "seed.json")
	seed := `[
		{"numeroCredito":"123456","numeroNfse":"7891011","dataConstituicao":"2024-02-25",
		 "valorIssqn":1500.75,"tipoCredito":"ISSQN","simplesNacional":true,"aliquota":5.0,
		 "valorFaturado":30000.00,"valorDeducao":5000.00,"baseCalculo":25000.00},
		{"numeroCredito":"789012","numeroNfse":"7891011","dataConstituicao":"2024-02-26",
		 "valorIssqn":1200.50,"tipoCredito":"ISSQN","simplesNacional":false,"aliquota":4.5,
		 "valorFaturado":25000.00,"valorDeducao":4000.00,"baseCalculo":21000.00}
	]`
	s.Require().NoError(os.WriteFile(path, []byte(seed), 0o600))

	n, err := SeedFromFile(s.ctx, s.store, path)
	s.Require().NoError(err)
	s.Equal(2, n)

	r, err := s.store.FindByNumeroCredito(s.ctx, "789012")
	s.Require().NoError(err)
	s.False(r.SimplesNacional)
	s.Equal("2024-02-26", r.DataConstituicao.Format(models.DateLayout))
	s.True(r.ValorIssqn.Equal(decimal.RequireFromString("1200.5")))
}

func (s *InMemoryStoreSuite) TestSeedFromFile_Invalid() {
	path := filepath.Join(s.T().TempDir(), "seed.json")
	s.Require().NoError(os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600))

	_, err := SeedFromFile(s.ctx, s.store, path)
	s.Error(err)

	_, err = SeedFromFile(s.ctx, s.store, filepath.Join(s.T().TempDir(), "missing.json"))
	s.Error(err)
}
