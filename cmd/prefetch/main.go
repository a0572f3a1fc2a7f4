package main

import (
	"log"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/app"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/config"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	if err := app.RunPrefetch(cfg); err != nil {
		log.Fatalln("prefetch failed: ", err)
	}
}
