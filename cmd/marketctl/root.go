package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/nishant946/masset/internal/asset"
	"github.com/nishant946/masset/internal/auth"
	"github.com/nishant946/masset/internal/category"
	"github.com/nishant946/masset/internal/config"
	"github.com/nishant946/masset/internal/db"
	"github.com/nishant946/masset/internal/logger"
)

const operatorID = "marketctl"

// app holds what the subcommands share. Services are built lazily from the
// database so tests can install their own.
type app struct {
	cfg        *config.Config
	database   *sqlx.DB
	categories category.Service
	assets     asset.Service
}

// session is the identity every administrative call runs under.
func (a *app) session() *auth.Session {
	return &auth.Session{UserID: operatorID, Name: operatorID, Role: auth.RoleAdmin}
}

func (a *app) connect() error {
	if a.database != nil {
		return nil
	}
	database, err := db.Connect(a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	a.database = database
	return nil
}

func (a *app) services() error {
	if a.categories != nil && a.assets != nil {
		return nil
	}
	if err := a.connect(); err != nil {
		return err
	}
	a.categories = category.NewService(category.NewRepository(a.database))
	a.assets = asset.NewService(asset.NewRepository(a.database))
	return nil
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "marketctl",
		Short: "Operate the Masset marketplace",
		Long: "marketctl runs administrative tasks against the marketplace database:\n" +
			"schema migrations, category management and asset moderation.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel)
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newCategoriesCmd(a))
	root.AddCommand(newAssetsCmd(a))
	return root
}
