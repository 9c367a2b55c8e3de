package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/api"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service/analysis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the status API",
	Long: `Start the HTTP status API over the job store.

With --process-interval the server also drains queued jobs in the
background, so cases enqueued over the API are analyzed without a separate
'process-pending' run.

Examples:
  caseanalyzer serve
  caseanalyzer serve --host 0.0.0.0 --port 9000 --process-interval 30s`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost     string
	servePort     int
	serveInterval time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host address to bind to (default: server.host)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default: server.port)")
	serveCmd.Flags().DurationVar(&serveInterval, "process-interval", 0,
		"Run queued jobs at this interval (0 disables the worker)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	host := rt.cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := rt.cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	var batch *analysis.Batch
	if serveInterval > 0 {
		orch, err := rt.orchestrator()
		if err != nil {
			return err
		}
		batch = analysis.NewBatch(orch, rt.store, rt.loader, rt.cfg.Batch.Workers, rt.logger)
	}

	server := api.NewServer(rt.store, rt.bus,
		api.WithLogger(rt.logger.Logger),
		api.WithInputLoader(rt.loader),
		api.WithCORSOrigins(rt.cfg.Server.CORSOrigins),
	)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(ctx, fmt.Sprintf("%s:%d", host, port))
	})
	if batch != nil {
		g.Go(func() error {
			runWorker(ctx, rt, batch)
			return nil
		})
	}
	return g.Wait()
}

// runWorker drains queued jobs every serveInterval until ctx ends.
func runWorker(ctx context.Context, rt *runtime, batch *analysis.Batch) {
	ticker := time.NewTicker(serveInterval)
	defer ticker.Stop()

	for {
		rep, err := batch.ProcessPending(ctx, rt.cfg.Batch.Limit)
		if err != nil {
			rt.logger.Error("processing queued jobs", "error", err)
		} else if rep.Processed > 0 {
			rt.logger.Info("processed queued jobs",
				"processed", rep.Processed,
				"completed", rep.Completed,
				"failed", rep.Failed,
				"skipped", rep.Skipped)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
