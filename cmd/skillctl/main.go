package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bibbank/skills/internal/presentation/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx)
	cancel()
	os.Exit(code)
}
