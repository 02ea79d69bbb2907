package main

import (
	"context"
	"log"

	"streamify/internal/transport/http"
)

func main() {
	if err := http.Run(context.Background()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
