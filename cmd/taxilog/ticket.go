package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func ticketCmd() *cobra.Command {
	var (
		subject string
		message string
	)

	cmd := &cobra.Command{
		Use:     "ticket",
		Short:   "Send a support message to the operator",
		Example: `taxilog ticket --subject "wrong plate" --message "trip from Monday has the old car's plate"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			delivered, err := a.CreateSupportTicket(ctx, subject, message)
			if err != nil {
				return err
			}
			fmt.Printf("Ticket %s\n", savedLine(delivered))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "short summary (required)")
	cmd.Flags().StringVar(&message, "message", "", "full message (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("subject"))
	cobra.CheckErr(cmd.MarkFlagRequired("message"))
	return cmd
}
