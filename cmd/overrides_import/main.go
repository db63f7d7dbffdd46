package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/nst-content-backend/internal/content/config"
	"github.com/yungbote/nst-content-backend/internal/content/override"
	"github.com/yungbote/nst-content-backend/internal/content/storage"
	"github.com/yungbote/nst-content-backend/internal/platform/logger"
)

func main() {
	var file string
	var dryRun bool
	flag.StringVar(&file, "file", "", "YAML seed file with curated chapters and lessons")
	flag.BoolVar(&dryRun, "dry-run", false, "validate and list keys without writing")
	flag.Parse()

	if file == "" {
		fmt.Println("usage: overrides_import -file seed.yaml [-dry-run]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	f, err := os.Open(file)
	if err != nil {
		fmt.Printf("open seed: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	seed, err := override.ParseSeed(f)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.Storage, log)
	if err != nil {
		fmt.Printf("open store: %v\n", err)
		os.Exit(1)
	}
	store := override.NewGormStore(db, log)
	if err := store.AutoMigrate(); err != nil {
		fmt.Printf("migrate: %v\n", err)
		os.Exit(1)
	}

	rep, err := seed.Apply(context.Background(), store, dryRun)
	if err != nil {
		fmt.Printf("import failed: %v\n", err)
		os.Exit(1)
	}
	for _, k := range rep.Keys {
		fmt.Println(k)
	}
	verb := "imported"
	if dryRun {
		verb = "validated"
	}
	fmt.Printf("%s %d chapter lists and %d lessons\n", verb, rep.Chapters, rep.Lessons)
}
