package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lomoval/alarmd/internal/logger"
	"github.com/lomoval/alarmd/internal/notifier"
	"github.com/lomoval/alarmd/internal/rabbit"
	"github.com/lomoval/alarmd/internal/scheduler"
	internalhttp "github.com/lomoval/alarmd/internal/server/http"
	"github.com/lomoval/alarmd/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	var notify scheduler.Notifier = notifier.Log{}
	if config.Notifier.Type == "rabbit" {
		r := rabbit.New(config.Rabbit)
		if err := r.Connect(); err != nil {
			log.Errorf("failed to connect to rabbit: %v", err)
			return
		}
		defer r.Close()
		notify = notifier.NewRabbit(r)
	}

	sched := scheduler.New(stor, notify)
	server := internalhttp.NewServer(config.HTTPServer, sched)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Errorf("failed to start scheduler: %v", err)
		closeStorage(stor.Close)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("alarmd is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
		sched.Stop()
		closeStorage(stor.Close)
		os.Exit(1) //nolint:gocritic
	}
	sched.Stop()
	closeStorage(stor.Close)
}

func closeStorage(close func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	if err := close(ctx); err != nil {
		log.Errorf("failed to close storage: %v", err)
	}
}
