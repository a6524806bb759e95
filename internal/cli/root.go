// Package cli wires the round validator into the roundcheck command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/blueprint"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/config"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/extract"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/metrics"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/registry"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/round"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/snapshot"
)

// ErrRoundFailed is returned when a validated round has blocking issues.
var ErrRoundFailed = errors.New("round has blocking issues")

type globalFlags struct {
	historyDir string
	fresh      bool
}

func NewRoot() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "roundcheck",
		Short:         "Validate generated project files against their contract",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.historyDir, "history-dir", round.DefaultHistoryDir(), "Directory for per-project round history")
	root.PersistentFlags().BoolVar(&g.fresh, "fresh", false, "Ignore the stored snapshot and start from an empty registry")
	root.AddCommand(
		validateCmd(g),
		preflightCmd(g),
		watchCmd(g),
		historyCmd(g),
	)
	return root
}

// env is everything one command needs for a project.
type env struct {
	cfg     *config.Config
	session *round.Session
	metrics *metrics.Recorder
	opened  *snapshot.Opened
}

func (e *env) Close() {
	if e.opened == nil {
		return
	}
	if err := e.opened.Close(); err != nil {
		log.Printf("CLI: closing snapshot store: %v", err)
	}
}

func openEnv(ctx context.Context, g *globalFlags, contractPath string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	opened, err := snapshot.Open(cfg.SnapshotStoreConfig())
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	rec := metrics.New()
	reg := registry.New(extract.Default(), cfg.RegistryOptions())
	session, err := round.NewSession(cfg.ProjectID, reg, opened.Store, rec)
	if err != nil {
		_ = opened.Close()
		return nil, err
	}
	session.WithHistory(round.NewHistory(g.historyDir))
	e := &env{cfg: cfg, session: session, metrics: rec, opened: opened}

	if !g.fresh {
		if err := session.Restore(ctx); err != nil {
			e.Close()
			return nil, err
		}
	}
	if contractPath != "" {
		c, err := blueprint.LoadContract(contractPath)
		if err != nil {
			e.Close()
			return nil, err
		}
		session.SetContract(c)
	}
	return e, nil
}
