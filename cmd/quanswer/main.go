// Command quanswer answers questions against context passages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/quanswer/internal/adapters/driving/cli"
	"github.com/custodia-labs/quanswer/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetFactory(app.New)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
