package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/app"
	"github.com/rbright/waybar-weekfitter/internal/config"
	"github.com/rbright/waybar-weekfitter/internal/logger"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			printUsage()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	timeout := cfg.Timeout + 5*time.Second
	if timeout < 10*time.Second {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	err = app.Run(ctx, args, cfg, log, os.Stdout)
	cancel()
	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println(app.Usage)
}
