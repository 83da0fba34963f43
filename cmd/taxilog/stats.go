package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the open settlement figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			s, offline, err := a.OpenSummary(ctx, cfg.Username)
			if err != nil {
				return err
			}
			if offline {
				fmt.Println("(offline: figures cover locally saved records only)")
			}
			fmt.Printf("Open trips:        %d\n", s.TripCount)
			fmt.Printf("Your earnings:     %.2f\n", s.Earnings)
			fmt.Printf("Cash collected:    %.2f\n", s.CashCollected)
			fmt.Printf("Invoice total:     %.2f\n", s.InvoiceTotal)
			fmt.Printf("Own account:       %.2f\n", s.OwnAccountTotal)
			fmt.Printf("Open expenses:     %.2f\n", s.ExpenseTotal)
			fmt.Printf("Owed to owner:     %.2f\n", s.OwedToBoss)
			return nil
		},
	}
	cmd.AddCommand(cockpitCmd())
	return cmd
}

func cockpitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cockpit",
		Short: "Owner overview across all drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			c, err := a.CockpitSummary(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DRIVER\tTRIPS\tREVENUE\tSHARE\tCASH\tEXPENSES\tOUTSTANDING")
			for _, name := range sortedKeys(c.Drivers) {
				f := c.Drivers[name]
				fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
					name, f.TripCount, f.Revenue, f.DriverShare, f.CashCollected, f.ExpenseTotal, f.Outstanding)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println()
			for _, plate := range sortedKeys(c.Plates) {
				fmt.Printf("Plate %s revenue: %.2f\n", plate, c.Plates[plate])
			}
			fmt.Printf("Total revenue:  %.2f\n", c.Revenue)
			fmt.Printf("Rental income:  %.2f\n", c.RentalTotal)
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
