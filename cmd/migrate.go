package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dpaola2/show-notes/internal/database"
	"github.com/dpaola2/show-notes/internal/models"
	"github.com/dpaola2/show-notes/pkg/config"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the database schema without starting the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.GetConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := database.Initialize(cfg.Database.Path, cfg.Database.LogQueries)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer db.Close()

		if err := migrateModels(db); err != nil {
			return err
		}

		fmt.Println("Migrations complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// migrateModels runs auto migration for every model in the schema
func migrateModels(db *database.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Podcast{},
		&models.Episode{},
		&models.UserEpisode{},
		&models.Transcript{},
		&models.Summary{},
		&models.Job{},
	)
}
