package main

import (
	"os"
	"os/signal"
	"syscall"

	"volguard/internal/bootstrap"
)

func main() {
	container := bootstrap.NewContainer()
	container.MustInit()

	if err := container.Start(); err != nil {
		container.Log.Fatalf("Failed to start: %v", err)
	}

	waitForShutdown(container)
}

// waitForShutdown blocks until a shutdown signal arrives, then stops
// all components gracefully
func waitForShutdown(container *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		container.Log.Infof("Received signal %s", sig)
	case <-container.Context.Done():
		container.Log.Warn("Internal shutdown requested")
	}

	container.Shutdown()
}
