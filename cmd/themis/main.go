// Package main provides the Themis CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/themisdb/themis/pkg/aql"
	"github.com/themisdb/themis/pkg/config"
	"github.com/themisdb/themis/pkg/logging"
	"github.com/themisdb/themis/pkg/query"
	"github.com/themisdb/themis/pkg/storage"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "themis",
		Short: "Themis - Multi-model database with an AQL query front end",
		Long: `Themis is a multi-model database engine written in Go.

It stores JSON documents with secondary and fulltext indexes, typed graph
edges, and answers AQL queries: filters, sorts, joins, aggregations, CTEs,
and bounded graph traversals.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Themis v%s (%s)\n", version, commit)
		},
	})

	explainCmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Parse a query and print its logical plan",
		Args:  cobra.ExactArgs(1),
		RunE:  runExplain,
	}
	explainCmd.Flags().Bool("ast", false, "Print the AST instead of the plan")
	rootCmd.AddCommand(explainCmd)

	queryCmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Execute a query and print each result as one JSON line",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}
	rootCmd.AddCommand(queryCmd)

	loadCmd := &cobra.Command{
		Use:   "load <table> <file.json>",
		Short: "Load documents from a JSON array into a table",
		Long: `Load reads a JSON array of objects and stores each one as a document.
The "_key" field names the primary key; objects without one get a
sequential key.

With --edges the file holds {"from", "to", "type"} objects and the table
argument is ignored; edges go into the graph adjacency index.`,
		Args: cobra.ExactArgs(2),
		RunE: runLoad,
	}
	loadCmd.Flags().Bool("edges", false, "Treat the file as an edge list")
	rootCmd.AddCommand(loadCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExplain(cmd *cobra.Command, args []string) error {
	q, err := aql.Parse(args[0])
	if err != nil {
		return err
	}

	if ast, _ := cmd.Flags().GetBool("ast"); ast {
		return printJSON(cmd, q)
	}

	plan, err := query.Translate(q)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(map[string]any{
		"shape": planShape(plan),
		"plan":  plan,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	q, err := aql.Parse(args[0])
	if err != nil {
		return err
	}

	store, err := storage.OpenWithOptions(storage.Options{
		DataDir:    cfg.Database.DataDir,
		SyncWrites: cfg.Database.SyncWrites,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := query.NewExecutorWithLimits(store, logger, query.Limits{
		ScanLimit:     cfg.Query.ScanLimit,
		FulltextLimit: cfg.Query.FulltextLimit,
	})
	results, err := executor.Run(ctx, q)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	logger.Info("query complete", zap.Int("rows", len(results)))
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	store, err := storage.OpenWithOptions(storage.Options{
		DataDir:    cfg.Database.DataDir,
		SyncWrites: cfg.Database.SyncWrites,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if edges, _ := cmd.Flags().GetBool("edges"); edges {
		return loadEdges(cmd, store, data)
	}
	return loadDocuments(cmd, store, args[0], data)
}

func loadDocuments(cmd *cobra.Command, store *storage.Store, table string, data []byte) error {
	var docs []map[string]any
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse documents: %w", err)
	}
	for i, doc := range docs {
		key, _ := doc["_key"].(string)
		if key == "" {
			key = strconv.Itoa(i)
		}
		delete(doc, "_key")
		if err := store.PutDocument(table, key, doc); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d documents into %s\n", len(docs), table)
	return nil
}

func loadEdges(cmd *cobra.Command, store *storage.Store, data []byte) error {
	var edges []struct {
		From string `json:"from"`
		To   string `json:"to"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &edges); err != nil {
		return fmt.Errorf("parse edges: %w", err)
	}
	for _, e := range edges {
		if err := store.PutEdge(e.From, e.To, e.Type); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d edges\n", len(edges))
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func planShape(p query.Plan) string {
	switch p.(type) {
	case *query.ConjunctiveQuery:
		return "conjunctive"
	case *query.DisjunctiveQuery:
		return "disjunctive"
	case *query.JoinQuery:
		return "join"
	case *query.TraversalQuery:
		return "traversal"
	}
	return "unknown"
}
