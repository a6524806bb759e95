package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRoot().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrRoundFailed) {
			fmt.Fprintln(os.Stderr, "roundcheck:", err)
		}
		stop()
		os.Exit(1)
	}
}
