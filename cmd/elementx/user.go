package main

import (
	"fmt"

	"github.com/aretw0/elementx/internal/cli"
	"github.com/aretw0/elementx/pkg/auth"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage your account",
	}

	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			institution, _ := cmd.Flags().GetString("institution")
			email, _ := cmd.Flags().GetString("email")

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			sess, err := app.Auth.Register(cmd.Context(), auth.Registration{
				Name:        name,
				Institution: institution,
				Email:       email,
				Password:    password,
			})
			if err != nil {
				return err
			}
			if err := app.SaveToken(sess.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s <%s>\n", sess.User.Name, sess.User.Email)
			return nil
		},
	}
	register.Flags().String("name", "", "Your name")
	register.Flags().String("institution", "", "Lab or institution (optional)")
	register.Flags().String("email", "", "Email address")
	_ = register.MarkFlagRequired("name")
	_ = register.MarkFlagRequired("email")

	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			sess, err := app.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := app.SaveToken(sess.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", sess.User.Name, sess.User.Email)
			return nil
		},
	}
	login.Flags().String("email", "", "Email address")
	_ = login.MarkFlagRequired("email")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(app *cli.App, user *domain.User) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>", user.Name, user.Email)
				if user.Institution != "" {
					fmt.Fprintf(cmd.OutOrStdout(), ", %s", user.Institution)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	cmd.AddCommand(register, login, logout, whoami)
	return cmd
}
