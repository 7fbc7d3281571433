package main

import (
	"context"
	"os"

	"github.com/fastygo/taskboard/internal/cli"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
)

func main() {
	ctx, stop := lifecycle.SignalContext(context.Background())
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
