package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taxilog/taxilog/internal/models"
)

func expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record and manage expenses",
	}
	cmd.AddCommand(expenseAddCmd())
	cmd.AddCommand(expenseListCmd())
	cmd.AddCommand(expenseReimburseCmd())
	cmd.AddCommand(expenseDeleteCmd())
	return cmd
}

func expenseAddCmd() *cobra.Command {
	var (
		description string
		amount      float64
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a new expense",
		Example: `taxilog expense add --description "car wash" --amount 12.00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			saved, delivered, err := a.AddExpense(ctx, models.Expense{
				Description: description,
				Amount:      amount,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Expense %s %s\n", saved.ID, savedLine(delivered))
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "what the money was spent on (required)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount in euro (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("description"))
	cobra.CheckErr(cmd.MarkFlagRequired("amount"))
	return cmd
}

func expenseListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, open ones by default",
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
			fmt.Fprintln(w, "ID\tDESCRIPTION\tAMOUNT\tREIMBURSED\tSYNC")
			for _, e := range data.Expenses {
				if e.Reimbursed && !all {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%v\t%s\n", e.ID, e.Description, e.Amount, e.Reimbursed, e.SyncStatus)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include reimbursed expenses")
	return cmd
}

func expenseReimburseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reimburse <id>",
		Short: "Mark an expense as paid back",
		Args:  cobra.ExactArgs(1),
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
			for _, e := range data.Expenses {
				if e.ID != args[0] {
					continue
				}
				_, delivered, err := a.ReimburseExpense(ctx, e)
				if err != nil {
					return err
				}
				fmt.Printf("Expense %s reimbursed, %s\n", e.ID, savedLine(delivered))
				return nil
			}
			return fmt.Errorf("expense %s not found", args[0])
		},
	}
}

func expenseDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense that has not synced yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, cfg, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			if err := a.DeleteExpense(ctx, models.Expense{ID: args[0], Username: cfg.Username}); err != nil {
				return err
			}
			fmt.Printf("Expense %s deleted locally\n", args[0])
			return nil
		},
	}
}
