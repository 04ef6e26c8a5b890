package main

import (
	"log"

	"github.com/MrSnakeDoc/yaelah/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ yaelah failed to start: %v", err)
	}
}
