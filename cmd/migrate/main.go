// migrate applique le schéma PostgreSQL embarqué.
//
// Usage: go run ./cmd/migrate [up|down|steps N|version]
// La connexion est lue comme pour l'API (DATABASE_URL ou DB_*).
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/boulangerie-api/internal/infrastructure/postgres"
	"github.com/jhoicas/boulangerie-api/pkg/config"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Charger la configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("migrate")

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("ouverture du migrateur")
	}
	defer m.Close()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(os.Args) < 3 {
			log.Fatal().Msg("usage: migrate steps N")
		}
		n, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			log.Fatal().Err(convErr).Msg("N doit être un entier")
		}
		err = m.Steps(n)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil {
			log.Fatal().Err(verr).Msg("lecture de la version")
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return
	default:
		log.Fatal().Str("command", cmd).Msg("commande inconnue (up, down, steps N, version)")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("migration")
	}
}
