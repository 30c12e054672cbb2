package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pdf-annotator-be/internal/bootstrap"
	"pdf-annotator-be/internal/config"
	"pdf-annotator-be/internal/server"
	"pdf-annotator-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// Tracer stays disabled unless OTEL_ENABLED=true
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	// 3. Start Background Services
	if err := container.ConsumerService.Consume(context.Background()); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if err := container.CleanupService.Start(); err != nil {
		log.Printf("Cleanup schedule error: %v", err)
	}
	defer container.CleanupService.Stop()
	if container.IconWatcher != nil {
		if err := container.IconWatcher.Start(); err != nil {
			log.Printf("Icon watcher error: %v", err)
		}
		defer container.IconWatcher.Stop()
	}

	// 4. Initialize Server
	srv, err := server.New(cfg, container)
	if err != nil {
		log.Fatalf("Unable to create server: %v", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
