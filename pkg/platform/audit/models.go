package audit

import (
	"encoding/json"
	"time"
)

// QueryKind names the lookup that produced a query-audit event.
type QueryKind string

const (
	QueryByNumeroNfse    QueryKind = "CONSULTA_POR_NFSE"
	QueryByNumeroCredito QueryKind = "CONSULTA_POR_CREDITO"
)

// SystemActor is recorded as the actor of every query-audit event; requests
// carry no end-user identity.
const SystemActor = "sistema"

// TimestampLayout renders local date-times without an offset. Trailing zero
// fractional digits are dropped.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// QueryEvent records that a credit lookup happened. Parameter distinguishes an
// absent value (nil) from an empty string.
type QueryEvent struct {
	Kind      QueryKind
	Parameter *string
	Timestamp time.Time
	Actor     string
}

// queryEventPayload is the wire shape. It has exactly four keys.
type queryEventPayload struct {
	TipoConsulta string  `json:"tipoConsulta"`
	Parametro    *string `json:"parametro"`
	Timestamp    string  `json:"timestamp"`
	Usuario      string  `json:"usuario"`
}

// MarshalJSON renders the event in its wire shape.
func (e QueryEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(queryEventPayload{
		TipoConsulta: string(e.Kind),
		Parametro:    e.Parameter,
		Timestamp:    e.Timestamp.Format(TimestampLayout),
		Usuario:      e.Actor,
	})
}

// UnmarshalJSON parses the wire shape. Timestamps are read in local time.
func (e *QueryEvent) UnmarshalJSON(b []byte) error {
	var p queryEventPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	ts, err := time.ParseInLocation(TimestampLayout, p.Timestamp, time.Local)
	if err != nil {
		return err
	}
	*e = QueryEvent{
		Kind:      QueryKind(p.TipoConsulta),
		Parameter: p.Parametro,
		Timestamp: ts,
		Actor:     p.Usuario,
	}
	return nil
}
