package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taxilog/taxilog/internal/models"
)

func rentalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rental",
		Short: "Record and list car rentals",
	}
	cmd.AddCommand(rentalAddCmd())
	cmd.AddCommand(rentalListCmd())
	return cmd
}

func rentalAddCmd() *cobra.Command {
	var (
		plate  string
		start  string
		end    string
		amount float64
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a car rental",
		Example: `taxilog rental add --plate "B-TX 1234" --start 2026-08-29T08:00:00Z --end 2026-08-29T18:00:00Z --amount 60`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			startTime, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("parse start time: %w", err)
			}
			endTime, err := time.Parse(time.RFC3339, end)
			if err != nil {
				return fmt.Errorf("parse end time: %w", err)
			}
			saved, delivered, err := a.AddRental(ctx, models.CarRental{
				LicensePlate: plate,
				StartTime:    startTime,
				EndTime:      endTime,
				Amount:       amount,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Rental %s %s\n", saved.ID, savedLine(delivered))
			return nil
		},
	}

	cmd.Flags().StringVar(&plate, "plate", "", "vehicle license plate (required)")
	cmd.Flags().StringVar(&start, "start", "", "rental start, RFC 3339 (required)")
	cmd.Flags().StringVar(&end, "end", "", "rental end, RFC 3339 (required)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "rental fee in euro (required)")
	for _, f := range []string{"plate", "start", "end", "amount"} {
		cobra.CheckErr(cmd.MarkFlagRequired(f))
	}
	return cmd
}

func rentalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List car rentals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			rentals, err := a.Rentals(ctx, cfg.Username)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPLATE\tSTART\tEND\tAMOUNT")
			for _, r := range rentals {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n",
					r.ID, r.LicensePlate,
					r.StartTime.Format(time.RFC3339), r.EndTime.Format(time.RFC3339), r.Amount)
			}
			return w.Flush()
		},
	}
}
