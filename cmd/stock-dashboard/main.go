package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"stockintel/internal/chart"
	"stockintel/internal/config"
	"stockintel/internal/dashboard"
	"stockintel/internal/tui"
	"stockintel/internal/util"
	"stockintel/pkg/stockintel"
)

func main() {
	cfgPath := "config/stockintel.yaml"
	if p := os.Getenv("STOCKINTEL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// The terminal belongs to the UI; logs go to a dated file.
	logFile, err := util.OpenDailyLog(cfg.Logging.Dir, "stock-dashboard")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logFile)
	util.SetDefault(logger)

	client := stockintel.NewClient(cfg.Client.BaseURL, stockintel.WithTimeout(cfg.Client.Timeout))
	logger.Info("dashboard starting", "api", client.BaseURL(), "days", cfg.Client.Days)

	screen := tui.NewScreen(80, 15)
	ctrl := dashboard.NewController(client, screen, chart.Factory{Precision: 2}, dashboard.Options{
		Timeout:       cfg.Client.Timeout,
		Days:          cfg.Client.Days,
		InsightsLimit: cfg.Client.InsightsLimit,
		Logger:        logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(tui.New(ctx, ctrl, screen, logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
