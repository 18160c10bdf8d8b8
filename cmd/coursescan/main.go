// Command coursescan opens every course archive a game dump contains and
// reports what it found, as a smoke test of extracted data.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/phst-randomizer/zed/internal/logging"
	"github.com/phst-randomizer/zed/internal/scan"
)

func main() {
	configPath := flag.String("config", "", "scan config file (TOML)")
	reportPath := flag.String("report", "", "write the YAML report here instead of stdout")
	workers := flag.Int("workers", 0, "parallel course workers (0 = one per CPU)")
	flag.Parse()

	logging.ConfigureRuntime()

	if err := run(*configPath, *reportPath, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "coursescan: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, reportPath string, workers int) error {
	if configPath == "" {
		configPath = os.Getenv(envConfig)
	}
	cfg := scan.DefaultConfig()
	if configPath != "" {
		loaded, fileReport, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if reportPath == "" {
			reportPath = fileReport
		}
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := scan.New(cfg).Run(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := rep.WriteYAML(&buf); err != nil {
		return err
	}
	if reportPath == "" {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			return err
		}
	} else if err := os.WriteFile(reportPath, buf.Bytes(), 0o644); err != nil {
		return err
	}

	if n := rep.Failures(); n > 0 {
		return fmt.Errorf("%d course(s) failed to scan", n)
	}
	return nil
}
