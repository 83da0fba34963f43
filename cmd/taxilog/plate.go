package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func plateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plate",
		Short: "Manage the vehicle plate list",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <plate>",
		Short: "Register a vehicle plate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			delivered, err := a.AddPlate(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Plate %s %s\n", args[0], savedLine(delivered))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <plate>",
		Short: "Remove a vehicle plate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			delivered, err := a.DeletePlate(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Plate %s removal %s\n", args[0], savedLine(delivered))
			return nil
		},
	})
	return cmd
}
