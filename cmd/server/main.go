package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"SellerWatch/internal/app"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Shutdown cancels the context; the scheduler stops at its next
	// cancellation point instead of finishing the whole cycle.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New()
	defer application.Repo.Close()

	log.Println("Starting storefront monitor daemon...")
	application.RunDaemon(ctx)
}
