// Package mapper translates persisted credit records into their wire shape.
package mapper

import "credito/internal/credit/models"

// ToView copies a record into its external projection. The regime flag is the
// only transformed field.
func ToView(r *models.Record) *models.View {
	if r == nil {
		return nil
	}
	return &models.View{
		NumeroCredito:    r.NumeroCredito,
		NumeroNfse:       r.NumeroNfse,
		DataConstituicao: models.NewDate(r.DataConstituicao),
		ValorIssqn:       models.NewAmount(r.ValorIssqn),
		TipoCredito:      r.TipoCredito,
		SimplesNacional:  SimplesNacionalLabel(r.SimplesNacional),
		Aliquota:         models.NewAmount(r.Aliquota),
		ValorFaturado:    models.NewAmount(r.ValorFaturado),
		ValorDeducao:     models.NewAmount(r.ValorDeducao),
		BaseCalculo:      models.NewAmount(r.BaseCalculo),
	}
}

// ToViews translates records one-to-one, preserving order.
func ToViews(records []*models.Record) []*models.View {
	views := make([]*models.View, 0, len(records))
	for _, r := range records {
		views = append(views, ToView(r))
	}
	return views
}

// SimplesNacionalLabel renders the regime flag.
func SimplesNacionalLabel(optante bool) string {
	if optante {
		return models.SimplesNacionalSim
	}
	return models.SimplesNacionalNao
}
