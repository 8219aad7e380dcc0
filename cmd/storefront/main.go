package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/vibe-storefront/config"
	"github.com/ikkim/vibe-storefront/internal/cli"
	"github.com/ikkim/vibe-storefront/internal/storefront"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/shopapi"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Logs go to stderr or a file so they never mix with the screens on stdout
	logOutput := os.Stderr
	if cfg.Client.LogFile != "" {
		f, err := logger.OpenFile(cfg.Client.LogFile)
		if err != nil {
			logger.Fatal("Failed to open log file", err, map[string]interface{}{
				"path": cfg.Client.LogFile,
			})
		}
		defer f.Close()
		logOutput = f
	}
	logger.Initialize(logger.Config{
		Level:       cfg.Client.LogLevel,
		Format:      "console",
		Output:      logOutput,
		EnableColor: false,
	})

	client, err := shopapi.NewClient(shopapi.Config{
		BaseURL:   cfg.Client.APIBaseURL,
		Timeout:   cfg.Client.Timeout,
		UserAgent: "vibe-storefront-cli/1.0",
	})
	if err != nil {
		logger.Fatal("Failed to create storefront client", err)
	}

	options := storefront.Options{
		Checkout: storefront.CheckoutOptions{
			CountdownFrom: cfg.Client.ReceiptCountdown,
			TickInterval:  cfg.Client.ReceiptTick,
			RefreshGrace:  cfg.Client.RefreshGrace,
		},
	}
	if cfg.Client.LocalReceipts {
		logger.Warn("Local receipts enabled, orders are not confirmed by the shop", nil)
		options.Receipts = storefront.LocalReceipts{Delay: time.Second}
	}

	logger.Info("Starting storefront client", map[string]interface{}{
		"api_url":        cfg.Client.APIBaseURL,
		"local_receipts": cfg.Client.LocalReceipts,
	})

	shell := storefront.NewShell(client, options)
	defer shell.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repl := cli.NewREPL(shell, os.Stdin, cli.NewPrinter(os.Stdout))
	if err := repl.Run(ctx); err != nil {
		logger.Error("Input error", err)
	}

	logger.Info("Storefront client stopped")
}
