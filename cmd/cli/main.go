package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sku-codemong/codemong-Backend-02/internal/client/cli"
	"github.com/sku-codemong/codemong-Backend-02/internal/client/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
