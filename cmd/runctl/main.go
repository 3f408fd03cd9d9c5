// Command runctl triggers one pipeline run from the shell and exits with the
// run's status code, so cron jobs and CI steps can branch on the outcome.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/report-etl/internal/bootstrap"
	"github.com/kirillkom/report-etl/internal/config"
	"github.com/kirillkom/report-etl/internal/observability/logging"
)

func main() {
	query := flag.String("query", "", "glob narrowing which inbox files to process, e.g. 'ventas*.csv'")
	showConfig := flag.Bool("show-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("runctl", cfg.LogLevel))

	if *showConfig {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(cfg); err != nil {
			log.Fatalf("encode config: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	report, err := app.Runner.Run(ctx, *query)
	if err != nil {
		slog.Error("run_failed", "run_id", report.RunID, "error", err)
	}

	out, marshalErr := json.MarshalIndent(report, "", "  ")
	if marshalErr == nil {
		fmt.Println(string(out))
	}

	stop()
	app.Close()
	os.Exit(int(report.Status))
}
