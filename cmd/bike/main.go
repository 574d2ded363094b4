package main

import (
	"log"

	"github.com/relabs-tech/bike_client/internal/app"
)

func main() {
	log.Println("starting bike client")

	if err := app.Run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
