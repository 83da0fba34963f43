package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taxilog/taxilog/internal/models"
)

func assignedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assigned",
		Short: "View and answer trips the owner assigned to you",
	}
	cmd.AddCommand(assignedListCmd())
	cmd.AddCommand(assignedRespondCmd("accept", models.AssignedAccepted))
	cmd.AddCommand(assignedRespondCmd("decline", models.AssignedDeclined))
	return cmd
}

func assignedListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assigned trips",
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
				fmt.Println("(offline: assigned trips are only available from the backend)")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFROM\tTO\tAMOUNT\tPICKUP\tSTATUS")
			for _, t := range data.AssignedTrips {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
					t.ID, t.Start, t.Destination, t.Amount, t.PickupTime.Format(time.RFC3339), t.Status)
			}
			return w.Flush()
		},
	}
}

func assignedRespondCmd(verb string, status models.AssignedTripStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: capitalize(verb) + " an assigned trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			delivered, err := a.UpdateAssignedTripStatus(ctx, args[0], status)
			if err != nil {
				return err
			}
			fmt.Printf("Assigned trip %s %s, %s\n", args[0], status, savedLine(delivered))
			return nil
		},
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
