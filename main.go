package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/admiralorbiter/DataDeckv2/internal/config"
	"github.com/admiralorbiter/DataDeckv2/internal/database"
	"github.com/admiralorbiter/DataDeckv2/internal/generator"
	"github.com/admiralorbiter/DataDeckv2/internal/router"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	if err := ensureDir(filepath.Dir(cfg.Log.File)); err != nil {
		log.Fatalf("create log dir: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// code/PIN generator, seeded from crypto/rand
	gen, err := generator.NewRandom()
	if err != nil {
		log.Fatalf("init generator: %v", err)
	}

	// setup router
	r := router.SetupRouter(cfg, db, gen)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
