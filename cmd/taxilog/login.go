package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:     "login <username>",
		Short:   "Sign in and cache credentials for offline use",
		Args:    cobra.ExactArgs(1),
		Example: `taxilog login anna`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, st, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = string(raw)
			}

			token, offline, err := a.Login(ctx, args[0], password)
			if err != nil {
				return err
			}
			if offline {
				fmt.Println("Logged in offline (backend unreachable, cached credentials matched)")
			} else {
				fmt.Println("Logged in")
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}
