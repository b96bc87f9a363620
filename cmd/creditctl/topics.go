package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"

	"credito/internal/platform/kafka/topics"
)

func newTopicsCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage the Kafka topics used by the service",
	}
	cmd.AddCommand(newTopicsEnsureCmd(d), newTopicsListCmd(d), newTopicsTailCmd(d))
	return cmd
}

func newTopicsEnsureCmd(d deps) *cobra.Command {
	var replication int16
	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Create every catalogued topic that does not exist yet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := d.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("replication-factor") {
				replication = cfg.Kafka.ReplicationFactor
			}
			log := d.newLogger(cfg)
			admin, closeFn, err := d.connect(cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			results, err := topics.Ensure(cmd.Context(), admin, replication, log)
			for _, r := range results {
				state := "exists"
				if r.Created {
					state = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Topic, state)
			}
			return err
		},
	}
	cmd.Flags().Int16Var(&replication, "replication-factor", 1, "replication factor for new topics")
	return cmd
}

func newTopicsListCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show partition and replica counts of the catalogued topics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := d.loadConfig()
			if err != nil {
				return err
			}
			admin, closeFn, err := d.connect(cfg, d.newLogger(cfg))
			if err != nil {
				return err
			}
			defer closeFn()

			names := make([]string, 0, len(topics.Catalog))
			for _, s := range topics.Catalog {
				names = append(names, s.Name)
			}
			details, err := admin.ListTopics(cmd.Context(), names...)
			if err != nil {
				return fmt.Errorf("list topics: %w", err)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TOPIC\tPARTITIONS\tREPLICAS\tSTATUS")
			for _, name := range names {
				detail, ok := details[name]
				if !ok || detail.Err != nil {
					fmt.Fprintf(w, "%s\t-\t-\tmissing\n", name)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\tok\n", name, len(detail.Partitions), detail.Partitions.NumReplicas())
			}
			return w.Flush()
		},
	}
}

func newTopicsTailCmd(d deps) *cobra.Command {
	var (
		group string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "tail [topic]",
		Short: "Print records from a topic as a member of the configured consumer group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := d.loadConfig()
			if err != nil {
				return err
			}
			topic := cfg.Kafka.Topic
			if len(args) == 1 {
				topic = args[0]
			}
			if group != "" {
				cfg.Kafka.Consumer.GroupID = group
			}
			tailer, err := d.subscribe(cfg, d.newLogger(cfg), topic)
			if err != nil {
				return err
			}
			defer tailer.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Partitions are handled concurrently.
			var mu sync.Mutex
			seen := 0
			out := cmd.OutOrStdout()
			return tailer.Run(ctx, func(_ context.Context, r *kgo.Record) error {
				mu.Lock()
				defer mu.Unlock()
				if limit > 0 && seen >= limit {
					return nil
				}
				fmt.Fprintf(out, "%d\t%d\t%s\t%s\n", r.Partition, r.Offset, r.Key, r.Value)
				seen++
				if limit > 0 && seen >= limit {
					cancel()
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "consumer group id (defaults to kafka.consumer.group_id)")
	cmd.Flags().IntVar(&limit, "max", 0, "stop after this many records; 0 tails until interrupted")
	return cmd
}
