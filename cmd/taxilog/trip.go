package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taxilog/taxilog/internal/app"
	"github.com/taxilog/taxilog/internal/models"
)

func tripCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Record and manage trips",
	}
	cmd.AddCommand(tripAddCmd())
	cmd.AddCommand(tripListCmd())
	cmd.AddCommand(tripEditCmd())
	cmd.AddCommand(tripSettleCmd())
	cmd.AddCommand(tripSettleAllCmd())
	cmd.AddCommand(tripDeleteCmd())
	return cmd
}

func tripAddCmd() *cobra.Command {
	var (
		plate      string
		start      string
		dest       string
		amount     float64
		payment    string
		drivers    int
		collected  bool
		ownAccount bool
		notes      string
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a new trip",
		Example: `taxilog trip add --plate "B-TX 1234" --from Hauptbahnhof --to Flughafen --amount 42.50 --payment cash`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			trip := models.Trip{
				LicensePlate:     plate,
				Start:            start,
				Destination:      dest,
				Payment:          models.Payment{Type: models.PaymentType(payment), Amount: amount},
				NumberOfDrivers:  drivers,
				CollectedPayment: collected,
				OwnAccount:       ownAccount,
				Notes:            notes,
			}
			saved, delivered, err := a.AddTrip(ctx, trip)
			if err != nil {
				return err
			}
			fmt.Printf("Trip %s %s\n", saved.ID, savedLine(delivered))
			return nil
		},
	}

	cmd.Flags().StringVar(&plate, "plate", "", "vehicle license plate (required)")
	cmd.Flags().StringVar(&start, "from", "", "origin (required)")
	cmd.Flags().StringVar(&dest, "to", "", "destination (required)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "fare amount in euro (required)")
	cmd.Flags().StringVar(&payment, "payment", "cash", "payment type: cash or invoice")
	cmd.Flags().IntVar(&drivers, "drivers", 1, "number of drivers splitting the trip")
	cmd.Flags().BoolVar(&collected, "collected", false, "this driver collected the payment")
	cmd.Flags().BoolVar(&ownAccount, "own-account", false, "trip on the driver's own account, not split")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text note")
	for _, f := range []string{"plate", "from", "to", "amount"} {
		cobra.CheckErr(cmd.MarkFlagRequired(f))
	}
	return cmd
}

func tripListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trips, open ones by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			data, err := a.Load(ctx, cfg.Username)
			if err != nil {
				return err
			}
			if data.Offline {
				fmt.Println("(offline: showing locally saved records only)")
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFROM\tTO\tAMOUNT\tPAYMENT\tSETTLED\tSYNC")
			for _, t := range data.Trips {
				if t.Settled && !all {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%v\t%s\n",
					t.ID, t.Start, t.Destination, t.Payment.Amount, t.Payment.Type, t.Settled, t.SyncStatus)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include settled trips")
	return cmd
}

func tripEditCmd() *cobra.Command {
	var (
		start  string
		dest   string
		amount float64
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a trip's route or amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			trip, err := findTrip(ctx, a, cfg.Username, args[0])
			if err != nil {
				return err
			}
			if start == "" {
				start = trip.Start
			}
			if dest == "" {
				dest = trip.Destination
			}
			if amount == 0 {
				amount = trip.Payment.Amount
			}
			_, delivered, err := a.EditTrip(ctx, *trip, start, dest, amount)
			if err != nil {
				return err
			}
			fmt.Printf("Trip %s edited, %s\n", trip.ID, savedLine(delivered))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "from", "", "new origin")
	cmd.Flags().StringVar(&dest, "to", "", "new destination")
	cmd.Flags().Float64Var(&amount, "amount", 0, "new fare amount")
	return cmd
}

func tripSettleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle <id>",
		Short: "Mark a trip as settled with the owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			trip, err := findTrip(ctx, a, cfg.Username, args[0])
			if err != nil {
				return err
			}
			_, delivered, err := a.SettleTrip(ctx, *trip)
			if err != nil {
				return err
			}
			fmt.Printf("Trip %s settled, %s\n", trip.ID, savedLine(delivered))
			return nil
		},
	}
}

func tripSettleAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle-all",
		Short: "Settle every open trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			data, err := a.Load(ctx, cfg.Username)
			if err != nil {
				return err
			}
			settled, delivered, err := a.SettleAll(ctx, data.Trips)
			if err != nil {
				return err
			}
			fmt.Printf("Settled %d trips, %d synced immediately\n", settled, delivered)
			return nil
		},
	}
}

func tripDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a trip that has not synced yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			if err := a.DeleteTrip(ctx, models.Trip{ID: args[0], Username: cfg.Username}); err != nil {
				return err
			}
			fmt.Printf("Trip %s deleted locally\n", args[0])
			return nil
		},
	}
}

func findTrip(ctx context.Context, a *app.App, user, id string) (*models.Trip, error) {
	data, err := a.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range data.Trips {
		if data.Trips[i].ID == id {
			return &data.Trips[i], nil
		}
	}
	return nil, fmt.Errorf("trip %s not found", id)
}
