// Package topics declares the broker topics owned by the credit service and
// provisions them through the Kafka admin API.
package topics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
)

// Topic names. Only Consultas is produced to by this service.
const (
	Consultas = "creditos-consultas"
	Eventos   = "creditos-eventos"
	Auditoria = "creditos-auditoria"
	DLQ       = "creditos-dlq"
)

const day = 24 * time.Hour

// Spec describes one topic's layout and retention. An empty Compression leaves
// the broker default in place.
type Spec struct {
	Name        string
	Partitions  int32
	Retention   time.Duration
	Segment     time.Duration
	Compression string
}

// Catalog lists every topic with its retention domain.
var Catalog = []Spec{
	{Name: Consultas, Partitions: 3, Retention: 7 * day, Segment: day, Compression: "snappy"},
	{Name: Eventos, Partitions: 3, Retention: 30 * day, Segment: day, Compression: "snappy"},
	{Name: Auditoria, Partitions: 1, Retention: 365 * day, Segment: 7 * day, Compression: "gzip"},
	{Name: DLQ, Partitions: 1, Retention: 30 * day, Segment: day},
}

// Configs returns the topic-level broker configs for s.
func (s Spec) Configs() map[string]*string {
	configs := map[string]*string{
		"retention.ms": kadm.StringPtr(strconv.FormatInt(s.Retention.Milliseconds(), 10)),
		"segment.ms":   kadm.StringPtr(strconv.FormatInt(s.Segment.Milliseconds(), 10)),
	}
	if s.Compression != "" {
		configs["compression.type"] = kadm.StringPtr(s.Compression)
	}
	return configs
}

// Lookup returns the spec for name.
func Lookup(name string) (Spec, bool) {
	for _, s := range Catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Creator is the subset of *kadm.Client used for provisioning.
type Creator interface {
	CreateTopics(ctx context.Context, partitions int32, replicationFactor int16, configs map[string]*string, topics ...string) (kadm.CreateTopicResponses, error)
}

// Result reports what Ensure did for one topic.
type Result struct {
	Topic   string
	Created bool
}

// Ensure creates every catalogued topic that does not exist yet. Topics that
// already exist are left untouched.
func Ensure(ctx context.Context, admin Creator, replicationFactor int16, logger *slog.Logger) ([]Result, error) {
	results := make([]Result, 0, len(Catalog))
	for _, spec := range Catalog {
		resps, err := admin.CreateTopics(ctx, spec.Partitions, replicationFactor, spec.Configs(), spec.Name)
		if err != nil {
			return results, fmt.Errorf("create topic %s: %w", spec.Name, err)
		}
		resp, ok := resps[spec.Name]
		if !ok {
			return results, fmt.Errorf("create topic %s: no response from broker", spec.Name)
		}
		switch {
		case resp.Err == nil:
			results = append(results, Result{Topic: spec.Name, Created: true})
			if logger != nil {
				logger.InfoContext(ctx, "kafka topic created",
					"topic", spec.Name,
					"partitions", spec.Partitions,
					"replication_factor", replicationFactor,
				)
			}
		case errors.Is(resp.Err, kerr.TopicAlreadyExists):
			results = append(results, Result{Topic: spec.Name})
			if logger != nil {
				logger.DebugContext(ctx, "kafka topic already exists", "topic", spec.Name)
			}
		default:
			return results, fmt.Errorf("create topic %s: %w", spec.Name, resp.Err)
		}
	}
	return results, nil
}
