// Command gosolr is a thin CLI over the client library: ping a core,
// run queries, index or delete documents, and drive the administrative
// update commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solrhq/gosolr/solr"
)

var (
	coreURL string
	timeout time.Duration
	debug   bool
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gosolr",
		Short: "gosolr CLI for querying and indexing a Solr core",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogger()
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				os.Setenv("GOSOLR_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	defaultURL := getEnv("SOLR_URL", "http://localhost:8983/solr")
	rootCmd.PersistentFlags().StringVar(&coreURL, "url", defaultURL, "Base URL of the Solr core")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newPingCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newCommitCmd())
	rootCmd.AddCommand(newOptimizeCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newExtractCmd())

	return rootCmd
}

func initLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	})
}

func newClient() *solr.Client {
	return solr.New(coreURL,
		solr.WithTimeout(timeout),
		solr.WithLogger(log.Logger),
	)
}

func opCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the core is alive",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()
			ctx, cancel := opCtx(cmd)
			defer cancel()

			start := time.Now()
			if err := c.Ping(ctx); err != nil {
				return err
			}
			fmt.Printf("OK (%v)\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	var handler string
	var rows int
	var params []string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a query and print the matching documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()
			ctx, cancel := opCtx(cmd)
			defer cancel()

			extra, err := parseParams(params)
			if err != nil {
				return err
			}
			if rows > 0 {
				extra.Set("rows", fmt.Sprint(rows))
			}

			res, err := c.Search(ctx, args[0], &solr.SearchOptions{Handler: handler, Params: extra})
			if err != nil {
				return err
			}
			fmt.Printf("%d hits (%d returned)\n", res.Hits, res.Len())
			return printJSON(res.Docs)
		},
	}
	cmd.Flags().StringVar(&handler, "handler", "select", "Search handler")
	cmd.Flags().IntVar(&rows, "rows", 0, "Maximum rows to return")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Extra query parameter as name=value (repeatable)")
	return cmd
}

func newAddCmd() *cobra.Command {
	var file string
	var commit bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Index documents from a JSON array (file or stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := os.Stdin
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			var docs []solr.Document
			if err := json.NewDecoder(in).Decode(&docs); err != nil {
				return fmt.Errorf("decode documents: %w", err)
			}

			c := newClient()
			defer func() { _ = c.Close() }()
			ctx, cancel := opCtx(cmd)
			defer cancel()

			opts := &solr.AddOptions{}
			if commit {
				opts.Commit = solr.Bool(true)
			}
			if _, err := c.Add(ctx, docs, opts); err != nil {
				return err
			}
			fmt.Printf("indexed %d documents\n", len(docs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with an array of documents (default stdin)")
	cmd.Flags().BoolVar(&commit, "commit", false, "Commit after indexing")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var id, query string
	var commit bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete documents by ID or query",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()
			ctx, cancel := opCtx(cmd)
			defer cancel()

			req := solr.DeleteRequest{ID: id, Query: query}
			if commit {
				req.Commit = solr.Bool(true)
			}
			if _, err := c.Delete(ctx, req); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Document ID to delete")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Delete-by-query expression")
	cmd.Flags().BoolVar(&commit, "commit", false, "Commit after deleting")
	return cmd
}

func newCommitCmd() *cobra.Command {
	var soft, expunge bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Make recent writes visible to search",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()
			ctx, cancel := opCtx(cmd)
			defer cancel()

			opts := &solr.CommitOptions{}
			if soft {
				opts.SoftCommit = solr.Bool(true)
			}
			if expunge {
				opts.ExpungeDeletes = solr.Bool(true)
			}
			if _, err := c.Commit(ctx, opts); err != nil {
				return err
			}
			fmt.Println("committed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&soft, "soft", false, "Soft commit")
	cmd.Flags().BoolVar(&expunge, "expunge-deletes", false, "Merge away segments with deletes")
	return cmd
}

func newOptimizeCmd() *cobra.Command {
	var maxSegments int

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Streamline the number of index segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()
			ctx, cancel := opCtx(cmd)
			defer cancel()

			if _, err := c.Optimize(ctx, &solr.OptimizeOptions{MaxSegments: maxSegments}); err != nil {
				return err
			}
			fmt.Println("optimized")
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSegments, "max-segments", 0, "Maximum segment count after optimization")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Suggest indexed terms with the given prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fields) == 0 {
				return fmt.Errorf("--field is required")
			}

			c := newClient()
			defer func() { _ = c.Close() }()
			ctx, cancel := opCtx(cmd)
			defer cancel()

			terms, err := c.SuggestTerms(ctx, fields, args[0], nil)
			if err != nil {
				return err
			}
			for field, pairs := range terms {
				for _, tc := range pairs {
					fmt.Printf("%s\t%s\t%d\n", field, tc.Term, tc.Count)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Field to suggest from (repeatable)")
	return cmd
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract text content and metadata from a rich document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			c := newClient()
			defer func() { _ = c.Close() }()
			ctx, cancel := opCtx(cmd)
			defer cancel()

			res, err := c.Extract(ctx, f, nil)
			if err != nil {
				return err
			}
			if err := printJSON(res.Metadata); err != nil {
				return err
			}
			fmt.Println(res.Contents)
			return nil
		},
	}
	return cmd
}

func parseParams(pairs []string) (url.Values, error) {
	out := url.Values{}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("malformed parameter %q, want name=value", p)
		}
		out.Add(name, value)
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
