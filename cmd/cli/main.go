package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophcal/internal/buildinfo"
	"github.com/dmitrijs2005/gophcal/internal/cli"
	"github.com/dmitrijs2005/gophcal/internal/config"
	"github.com/dmitrijs2005/gophcal/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	ctx := context.Background()

	app, closeAll, err := cli.NewFromConfig(ctx, cfg, os.Stdin, os.Stdout, log)
	if err != nil {
		return err
	}
	defer closeAll()

	app.Run(ctx)
	return nil
}
