package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/workspace"
)

func watchCmd(g *globalFlags) *cobra.Command {
	f := &validateFlags{}
	var metricsAddr string
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate the workspace whenever its files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, g, f.contract)
			if err != nil {
				return err
			}
			defer e.Close()

			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, e.metrics.Handler())
				defer stop()
			}

			root, err := workspace.OpenRoot(f.workspace)
			if err != nil {
				return err
			}
			writes, err := root.Walk(workspace.WalkOptions{})
			if err != nil {
				return fmt.Errorf("read workspace: %w", err)
			}
			if _, err := e.session.Apply(ctx, writes); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			index := f.round
			validate := func(ctx context.Context) error {
				fb, err := runRound(ctx, e, f, index)
				if err != nil {
					return err
				}
				index++
				return printFeedback(out, fb, f, e.cfg.FeedbackMaxIssues)
			}
			if err := validate(ctx); err != nil {
				return err
			}

			err = workspace.Watch(ctx, root.Path(), debounce, func(ctx context.Context, changed []string) error {
				batch := make([]types.FileWrite, 0, len(changed))
				for _, p := range changed {
					data, err := root.ReadFile(p)
					if err != nil {
						// Removed or replaced by a directory; the registry keeps the last version.
						if !errors.Is(err, os.ErrNotExist) {
							log.Printf("CLI: skipping %s: %v", p, err)
						}
						continue
					}
					batch = append(batch, types.FileWrite{Path: p, Content: string(data), CreatedBy: workspace.CreatedBy})
				}
				if len(batch) == 0 {
					return nil
				}
				if _, err := e.session.Apply(ctx, batch); err != nil {
					return err
				}
				return validate(ctx)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9102)")
	cmd.Flags().DurationVar(&debounce, "debounce", workspace.DefaultDebounce, "Quiet period before re-validating")
	return cmd
}

func serveMetrics(addr string, h http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("CLI: metrics server: %v", err)
		}
	}()
	log.Printf("CLI: serving metrics on %s/metrics", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
