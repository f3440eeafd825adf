package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sweetlabs/sweetshop/config"
	"github.com/sweetlabs/sweetshop/internal/api"
	"github.com/sweetlabs/sweetshop/internal/app"
	"github.com/sweetlabs/sweetshop/internal/notify"
	"github.com/sweetlabs/sweetshop/internal/webserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	cfile   = flag.String("c", "sweetshop.yml", "config file path")
	initdb  = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showVer = flag.Bool("v", false, "print version and exit")
)

var version = "dev"

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("sweetshop", version)
		return
	}

	cfg := config.LoadConfig(*cfile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	notifier, err := notify.NewService(cfg, application.Bus(), application)
	if err != nil {
		zap.S().Fatalf("failed to create notification service: %v", err)
	}
	if err := notifier.Start(); err != nil {
		zap.S().Fatalf("failed to start notification service: %v", err)
	}
	defer notifier.Stop()

	webserver.Init(application)
	api.InitRouter()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webserver.Instance().Start(ctx)
	})
	g.Go(func() error {
		application.StartBackgroundJobs(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorf("server exited with error: %v", err)
		os.Exit(1)
	}
	zap.L().Info("server stopped")
}
