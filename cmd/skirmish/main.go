// Package main runs one interactive encounter in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/frontend/console"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/move"
	"github.com/cory-johannsen/skirmish/internal/game/roster"
	"github.com/cory-johannsen/skirmish/internal/game/status"
	"github.com/cory-johannsen/skirmish/internal/game/world"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/server"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	playerID := flag.String("player", "mara", "roster template ID of the player")
	enemyList := flag.String("enemies", "goblin,cave_rat", "comma-separated roster template IDs of the hostile party")
	allyList := flag.String("allies", "", "comma-separated roster template IDs of the player's companions")
	armor := flag.Int("armor", 0, "armor rating worn by the player")
	rest := flag.Int("rest", 3, "out-of-combat steps the player rests after the encounter")
	noColor := flag.Bool("no-color", false, "disable ANSI color output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)

	contentStart := time.Now()
	statuses, err := status.LoadDirectory(cfg.Content.StatusesDir)
	if err != nil {
		logger.Fatal("loading statuses", zap.Error(err))
	}
	moves, err := move.LoadDirectory(cfg.Content.MovesDir)
	if err != nil {
		logger.Fatal("loading moves", zap.Error(err))
	}
	templates, err := roster.LoadDirectory(cfg.Content.RosterDir)
	if err != nil {
		logger.Fatal("loading roster", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("statuses", len(statuses.All())),
		zap.Int("moves", len(moves.All())),
		zap.Int("templates", len(templates.All())),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	tmpl, ok := templates.Get(*playerID)
	if !ok || tmpl.Kind != roster.KindPlayer {
		logger.Fatal("unknown player template", zap.String("player", *playerID))
	}
	player, err := roster.Spawn(tmpl, moves, logger)
	if err != nil {
		logger.Fatal("spawning player", zap.Error(err))
	}
	allies, err := templates.SpawnParty(splitList(*allyList), moves, logger)
	if err != nil {
		logger.Fatal("spawning allies", zap.Error(err))
	}
	enemies, err := templates.SpawnParty(splitList(*enemyList), moves, logger)
	if err != nil {
		logger.Fatal("spawning enemies", zap.Error(err))
	}
	if len(enemies) == 0 {
		logger.Fatal("an encounter needs at least one enemy")
	}

	lc := server.NewLifecycle(logger)

	var scripts *scripting.Manager
	if cfg.Content.ScriptsDir != "" {
		scripts = scripting.NewManager(roller, logger)
		if err := scripts.Load(cfg.Content.ScriptsDir, cfg.Content.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		lc.Add("scripts", &server.FuncService{
			StartFn: func(context.Context) error { return nil },
			StopFn:  scripts.Close,
		})
	}

	var recorder combat.Recorder
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(context.Background(), cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		recorder = pool.Encounters()
		lc.Add("database", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				return pool.Health(ctx, 2*time.Second)
			},
			StopFn: pool.Close,
		})
	}

	w := world.New(logger)
	w.Equip(player.ID(), world.Gear{Armor: *armor})

	term := console.New(os.Stdin, os.Stdout, !*noColor, logger)
	engine := combat.NewEngine()
	sess, err := engine.Start(player, allies, enemies, combat.Deps{
		Config:    cfg.Combat,
		Roller:    roller,
		Strategy:  term,
		Statuses:  statuses,
		World:     w,
		Presenter: term,
		Recorder:  recorder,
		Scripts:   scripts,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("starting encounter", zap.Error(err))
	}

	names := make([]string, 0, len(enemies))
	for _, e := range enemies {
		names = append(names, e.Name())
	}
	term.Print(console.Banner(player.Name(), names))

	lc.Add("encounter", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			res, err := sess.Run(ctx)
			term.Print(console.Summary(res))
			if err != nil {
				return err
			}
			for i := 0; i < *rest && player.Alive(); i++ {
				for _, id := range w.Step(player) {
					term.Narrate(fmt.Sprintf("%s's %s wears off.", player.Name(), id))
				}
			}
			return nil
		},
		StopFn: func() { engine.End(player.ID()) },
	})

	logger.Info("encounter ready", zap.Duration("startup", time.Since(start)))
	if err := lc.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "encounter ended with error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("total experience", zap.String("player", player.ID()), zap.Int("exp", w.Experience(player.ID())))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
