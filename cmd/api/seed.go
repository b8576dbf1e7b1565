package main

import (
	"database/sql"

	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/router"

	"github.com/spf13/cobra"
)

var (
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "siembra la tabla de permisos por rol y el admin inicial",
		RunE:  runSeed,
	}
	seedAdminUID    string
	seedAdminEmail  string
	seedAdminNombre string
)

func init() {
	seedCmd.Flags().StringVar(&seedAdminUID, "admin-uid", "", "uid del proveedor de identidad que queda como admin")
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "", "email del admin")
	seedCmd.Flags().StringVar(&seedAdminNombre, "admin-nombre", "", "nombre del admin")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
	} else {
		log.Warn("DB_DSN not set, seeding in-memory storage has no effect", nil)
	}

	if err := router.Seed(cmd.Context(), db, cfg.Database.StoreTimeout, log, seedAdminUID, seedAdminEmail, seedAdminNombre); err != nil {
		return err
	}
	log.Info("seed done", logger.Fields{"admin_uid": seedAdminUID})
	return nil
}
