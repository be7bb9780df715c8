// Command assistant boots every component described in spec.md §4: the
// HTTP surface, the asynq ingestion worker, and the SourceMonitor scan
// loop, wired together by the internal/runtime composition root.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wk-archive/meetingmind/internal/config"
	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/runtime"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := runtime.Build(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "build app: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.GetLogger(ctx)

	err = runtime.GetContainer().Invoke(func(app *runtime.App) error {
		defer app.Close()
		log.Info("starting assistant")
		return app.Run(ctx)
	})
	if err != nil {
		log.Errorf("assistant stopped with error: %v", err)
		os.Exit(1)
	}
	log.Info("assistant stopped")
}
