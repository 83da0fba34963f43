package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taxilog/taxilog/internal/app"
	"github.com/taxilog/taxilog/internal/backend"
	"github.com/taxilog/taxilog/internal/config"
	"github.com/taxilog/taxilog/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "taxilog",
	Short: "offline-first driver logbook",
	Long: `taxilog keeps a taxi driver's trips, expenses and rentals in a local
store and syncs them to the company backend whenever it is reachable.
Records entered without connectivity are queued and delivered later.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(tripCmd())
	rootCmd.AddCommand(expenseCmd())
	rootCmd.AddCommand(rentalCmd())
	rootCmd.AddCommand(assignedCmd())
	rootCmd.AddCommand(ticketCmd())
	rootCmd.AddCommand(plateCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(runCmd())
}

// newApp loads the configuration and opens the configured store. The caller
// must close the returned store.
func newApp(ctx context.Context) (*app.App, store.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	be := backend.New(cfg.BackendURL, cfg.HTTPTimeout)
	return app.New(*cfg, st, be), st, cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return store.OpenSQLite(cfg.StorePath)
	case "mongo":
		return store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// savedLine tells the user whether a record reached the backend or was
// queued for a later drain.
func savedLine(delivered bool) string {
	if delivered {
		return "saved and synced"
	}
	return "saved offline, will sync later"
}
