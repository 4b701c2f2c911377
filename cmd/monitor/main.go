package main

import (
	"context"
	"flag"
	"log"

	"SellerWatch/internal/app"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	task := flag.String("task", "cycle", "Task to run: cycle or check")
	seller := flag.String("seller", "", "Seller handle for the check task")
	kind := flag.String("kind", "listings", "Monitor kind for the check task: listings or sales")
	flag.Parse()

	application := app.New()
	defer application.Repo.Close()

	log.Printf("Running task: %s", *task)

	switch *task {
	case "cycle":
		// Runs one full monitoring cycle over all tracked sellers.
		application.RunCycleOnce(context.Background())

	case "check":
		// Read-only probe for a single seller: crawls and diffs,
		// reports counts, persists and notifies nothing.
		if *seller == "" {
			log.Fatal("The check task requires -seller.")
		}
		application.CheckSeller(context.Background(), *seller, *kind)

	default:
		log.Fatalf("Unknown task: %s.", *task)
	}
}
