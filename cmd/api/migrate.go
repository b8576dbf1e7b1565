package main

import (
	"errors"

	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/platform/logger"

	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "aplica (o revierte) las migraciones SQL embebidas",
	}
	migrateRollback bool
	migrateStatus   bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "revierte la última migración")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "muestra el estado de las migraciones")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return errors.New("migrate: DB_DSN is required")
	}

	db, err := pg.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	direction := "up"
	switch {
	case migrateStatus:
		direction = "status"
	case migrateRollback:
		direction = "down"
	}

	log := newLogger(cfg)
	log.Info("running migrations", logger.Fields{"direction": direction})
	return pg.Migrate(cmd.Context(), db, direction)
}
