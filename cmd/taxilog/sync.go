package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	var recordID string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Drain the queue now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			if recordID != "" {
				done, err := a.Queue().DrainOne(ctx, recordID)
				if err != nil {
					return err
				}
				if done {
					fmt.Printf("Record %s delivered\n", recordID)
				} else {
					fmt.Printf("Record %s still queued, backend unreachable\n", recordID)
				}
				return nil
			}

			delivered, remaining, err := a.Queue().DrainAll(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Delivered %d operations, %d still queued\n", delivered, remaining)
			return nil
		},
	}
	cmd.Flags().StringVar(&recordID, "id", "", "drain only the given record id")
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show how many operations are queued",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			pending, err := a.Queue().Pending(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%d operations queued\n", pending)
			return nil
		},
	})
	return cmd
}
