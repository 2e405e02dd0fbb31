// Package main runs offline clash simulations between two house skills and
// prints win rates.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/coinclash/internal/config"
	"github.com/cory-johannsen/coinclash/internal/game/clash"
	"github.com/cory-johannsen/coinclash/internal/game/duel"
	"github.com/cory-johannsen/coinclash/internal/game/roll"
	"github.com/cory-johannsen/coinclash/internal/game/skill"
	"github.com/cory-johannsen/coinclash/internal/observability"
	"github.com/cory-johannsen/coinclash/internal/sim"
)

func main() {
	start := time.Now()

	presetsDir := flag.String("presets", "content/skills", "path to house skill YAML directory")
	presetA := flag.String("a", "", "house skill id for side A (required)")
	presetB := flag.String("b", "", "house skill id for side B (required)")
	sanityA := flag.Int("sanity-a", 0, "sanity for side A")
	sanityB := flag.Int("sanity-b", 0, "sanity for side B")
	duels := flag.Int("n", 10000, "number of duels")
	workers := flag.Int("workers", runtime.NumCPU(), "concurrent duels")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "base seed; duel i uses seed+i")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if *presetA == "" || *presetB == "" || *duels < 1 {
		flag.Usage()
		os.Exit(1)
	}

	logger, err := observability.NewLogger(config.LoggingConfig{Level: *logLevel, Format: "console"}, "simulate")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	presets, err := skill.LoadPresets(*presetsDir)
	if err != nil {
		logger.Fatal("loading house skills", zap.Error(err))
	}
	a, err := contestant(presets, *presetA, *sanityA)
	if err != nil {
		logger.Fatal("side A", zap.Error(err))
	}
	b, err := contestant(presets, *presetB, *sanityB)
	if err != nil {
		logger.Fatal("side B", zap.Error(err))
	}

	sum, err := sim.Run(context.Background(), sim.Options{
		A:              a,
		B:              b,
		Duels:          *duels,
		Workers:        *workers,
		Seed:           *seed,
		MaxClashRounds: clash.DefaultMaxRounds,
		MaxDiceRerolls: roll.DefaultMaxRerolls,
	}, logger)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	fmt.Fprintf(os.Stdout, "%s (sanity %d) vs %s (sanity %d), %d duels, seed %d\n",
		a.Record.Name, a.Sanity, b.Record.Name, b.Sanity, sum.Duels, *seed)
	fmt.Fprintf(os.Stdout, "  %-12s wins %6d  %5.1f%%\n", a.Record.Name, sum.WinsA, 100*sum.WinRate(duel.SideA))
	fmt.Fprintf(os.Stdout, "  %-12s wins %6d  %5.1f%%\n", b.Record.Name, sum.WinsB, 100*sum.WinRate(duel.SideB))
	fmt.Fprintf(os.Stdout, "  ties %d, stalemates %d, mean rounds %.2f [%s]\n",
		sum.Ties, sum.Stalemates, sum.MeanRounds(), time.Since(start).Round(time.Millisecond))
}

func contestant(presets []*skill.Preset, id string, sanity int) (duel.Contestant, error) {
	p := skill.FindPreset(presets, id)
	if p == nil {
		return duel.Contestant{}, fmt.Errorf("unknown house skill %q", id)
	}
	rec, err := p.Record(p.ID)
	if err != nil {
		return duel.Contestant{}, err
	}
	return duel.Contestant{UserID: p.ID, Name: p.Name, Record: rec, Sanity: skill.ClampSanity(sanity)}, nil
}
