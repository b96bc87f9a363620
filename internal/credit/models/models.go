package models

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"
)

// Record is a fiscal-credit entry as persisted by the record store.
// NumeroCredito is unique; many records can share one NumeroNfse.
type Record struct {
	NumeroCredito    string
	NumeroNfse       string
	DataConstituicao time.Time
	ValorIssqn       decimal.Decimal
	TipoCredito      string
	SimplesNacional  bool
	Aliquota         decimal.Decimal
	ValorFaturado    decimal.Decimal
	ValorDeducao     decimal.Decimal
	BaseCalculo      decimal.Decimal
}

// SimplesNacional labels rendered in place of the regime flag.
const (
	SimplesNacionalSim = "Sim"
	SimplesNacionalNao = "Não"
)

// View is the externally exposed projection of a Record.
type View struct {
	NumeroCredito    string `json:"numeroCredito"`
	NumeroNfse       string `json:"numeroNfse"`
	DataConstituicao Date   `json:"dataConstituicao"`
	ValorIssqn       Amount `json:"valorIssqn"`
	TipoCredito      string `json:"tipoCredito"`
	SimplesNacional  string `json:"simplesNacional"`
	Aliquota         Amount `json:"aliquota"`
	ValorFaturado    Amount `json:"valorFaturado"`
	ValorDeducao     Amount `json:"valorDeducao"`
	BaseCalculo      Amount `json:"baseCalculo"`
}

// Amount is an exact decimal that renders as a JSON number, keeping the
// scale it was read with (30000.00 stays 30000.00).
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if exp := a.Exponent(); exp < 0 {
		return []byte(a.StringFixed(-exp)), nil
	}
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

// DateLayout is the wire layout for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date rendered as yyyy-MM-dd; the zero value renders as null.
type Date struct {
	time.Time
}

// NewDate keeps only the calendar part of t.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(`"`+DateLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// String renders the date in wire layout.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}
