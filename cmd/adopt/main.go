// Package main provides a CLI tool for granting a house skill to a player.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/coinclash/internal/config"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
	"github.com/cory-johannsen/coinclash/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	presetsDir := flag.String("presets", "content/skills", "path to house skill YAML directory")
	handle := flag.String("handle", "", "target player handle (required)")
	presetID := flag.String("preset", "", "house skill id to grant (required)")
	flag.Parse()

	if *handle == "" || *presetID == "" {
		flag.Usage()
		os.Exit(1)
	}

	presets, err := skill.LoadPresets(*presetsDir)
	if err != nil {
		log.Fatalf("loading house skills: %v", err)
	}
	preset := skill.FindPreset(presets, *presetID)
	if preset == nil {
		log.Fatalf("unknown house skill %q", *presetID)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	player, err := postgres.NewPlayerRepository(pool.DB()).GetByHandle(ctx, *handle)
	if err != nil {
		log.Fatalf("looking up player %q: %v", *handle, err)
	}

	rec, err := preset.Record(player.Handle)
	if err != nil {
		log.Fatalf("building skill: %v", err)
	}
	saved, err := postgres.NewSkillRepository(pool.DB()).Save(ctx, rec)
	if err != nil {
		log.Fatalf("saving skill: %v", err)
	}

	fmt.Fprintf(os.Stdout, "granted %s to %s (#%d) as skill %d [%s]\n",
		preset.ID, player.Handle, player.ID, saved.ID, time.Since(start))
}
