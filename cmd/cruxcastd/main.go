package main

import (
	"context"
	"flag"
	"time"

	"cruxcast/internal/config"
	"cruxcast/internal/encoder"
	"cruxcast/internal/httpapi"
	"cruxcast/internal/job"
	"cruxcast/internal/mainloop"
	"cruxcast/internal/media"
	"cruxcast/internal/pkg/logger"
	"cruxcast/internal/pkg/shutdown"
	"cruxcast/internal/runner"
	"cruxcast/internal/scene"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault().LogFatal("failed to load configuration", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		AddSource:   cfg.Log.AddSource,
		ServiceName: "cruxcastd",
	})

	log.Info("starting cruxcastd",
		"listen_addrs", cfg.ListenAddrs,
		"ffmpeg", cfg.FFmpegPath,
		"output_dir", cfg.OutputDir,
	)

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Main loop. Everything that touches the scene or the encoder runs on
	// this goroutine.
	loop := mainloop.New(log, cfg.TickInterval)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	go func() {
		if err := loop.Run(loopCtx); err != nil {
			log.Error("main loop stopped", "error", err)
		}
	}()

	store := job.NewStore()

	jobRunner := runner.New(runner.Deps{
		Loop:      loop,
		Store:     store,
		Driver:    scene.NewSynthetic(),
		Encoders:  encoder.NewFactory(cfg.FFmpegPath, log),
		Media:     media.NewClient(0),
		OutputDir: cfg.OutputDir,
		Defaults: job.Defaults{
			Width:           cfg.Capture.Width,
			Height:          cfg.Capture.Height,
			FPS:             cfg.Capture.FPS,
			DurationPadding: cfg.Capture.DurationPadding,
		},
		Log: log,
	})

	router := httpapi.NewRouter(httpapi.Deps{
		Runner:    jobRunner,
		Store:     store,
		AuthToken: cfg.AuthToken,
		Log:       log,
	})

	server := httpapi.NewServer(router, log)
	server.Start(cfg.ListenAddrs)

	// Hooks run LIFO: the control server must drain in-flight requests
	// before the loop that consumes their dispatches stops.
	shutdownMgr.RegisterSimple("main-loop", stopLoop)
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down control server")
		return server.Shutdown(ctx)
	})

	shutdownMgr.Wait()
}
