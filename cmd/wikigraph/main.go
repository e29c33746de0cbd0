package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/wikigraph/internal/config"
	"github.com/OFFIS-RIT/wikigraph/internal/ingest"
	"github.com/OFFIS-RIT/wikigraph/internal/server"
	"github.com/OFFIS-RIT/wikigraph/internal/util"
	"github.com/OFFIS-RIT/wikigraph/pkg/graph"
	"github.com/OFFIS-RIT/wikigraph/pkg/logger"
	"github.com/OFFIS-RIT/wikigraph/pkg/logger/console"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	// Short run id to tell interleaved runs apart when logs are aggregated.
	runID, err := gonanoid.New(8)
	if err != nil {
		runID = "--------"
	}
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: runID,
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	root := &cobra.Command{
		Use:           "wikigraph",
		Short:         "Build and explore an article link graph from wiki dumps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newParseCommand(cfg),
		newLoadCommand(cfg),
		newCrawlCommand(cfg),
		newExploreCommand(cfg),
	)

	if err := root.Execute(); err != nil {
		logger.Fatal("Command failed", "err", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newParseCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "parse ARCHIVE SNAPSHOT",
		Short: "Parse a dump archive and write the article graph to a snapshot file",
		Long: `
Streams a wiki dump archive (local path or s3://bucket/key, optionally
bzip2 or gzip compressed), resolves articles and links, and writes the
resulting graph to SNAPSHOT without touching the store.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			m, err := ingest.ParseArchive(ctx, cfg, args[0])
			if err != nil {
				return err
			}
			return graph.WriteSnapshot(args[1], m)
		},
	}
}

func newLoadCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "load SNAPSHOT",
		Short: "Load a previously parsed snapshot into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			assigner, err := ingest.NewAssigner(cfg)
			if err != nil {
				return err
			}
			m, err := graph.ReadSnapshot(args[0], assigner)
			if err != nil {
				return err
			}
			logger.Info("Snapshot loaded", "path", args[0], "articles", m.ArticleLen(), "links", m.LinkLen())
			return ingest.Dispatch(ctx, cfg, m)
		},
	}
}

func newCrawlCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl ARCHIVE SNAPSHOT",
		Short: "Parse a dump archive and load it into the store in one run",
		Long: `
Parses ARCHIVE into an article graph and dispatches it to the configured
store. SNAPSHOT is used as a cache: when it exists the parse phase is
skipped, otherwise the parsed graph is written there for later runs.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			return ingest.Run(ctx, cfg, args[0], args[1])
		},
	}
}

func newExploreCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Serve the read-only graph explorer",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			s, err := ingest.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			assigner, err := ingest.NewAssigner(cfg)
			if err != nil {
				return err
			}
			server.Init(ctx, cfg, s, assigner)
			return nil
		},
	}
}
