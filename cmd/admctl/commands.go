package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-admin-client/session"
	"github.com/jrsteele09/go-admin-client/token"
)

func newLoginCmd(app *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				email, err = pterm.DefaultInteractiveTextInput.Show("Email")
				if err != nil {
					return err
				}
			}
			if password == "" {
				password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
				if err != nil {
					return err
				}
			}

			if err := app.controller.Login(cmd.Context(), email, password); err != nil {
				message := app.controller.State().Err
				if message == "" {
					message = session.SessionFailureMessage(nil)
				}
				pterm.Error.Println(message)
				return fmt.Errorf("login failed")
			}

			state := app.controller.State()
			pterm.Success.Printf("Logged in as %s (%s)\n", state.Principal.Username, state.Principal.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when omitted)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session and clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.controller.Logout(cmd.Context())
			pterm.Success.Println("Logged out.")
			return nil
		},
	}
}

func newStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			pterm.DefaultSection.Println("Authentication Status")

			if !app.store.Exists() {
				pterm.Info.Println("Not logged in.")
				return nil
			}

			app.controller.Bootstrap(cmd.Context())
			state := app.controller.State()
			if !state.IsAuthenticated() {
				pterm.Warning.Println("Stored credentials are no longer valid; please log in again.")
				return nil
			}

			pterm.Info.Printf("Logged in as %s (%s)\n", state.Principal.Username, state.Principal.Email)
			if expiresAt := token.ExpiresAt(app.store.Access()); !expiresAt.IsZero() {
				pterm.Info.Printf("Access token expires at %s\n", expiresAt.Format(time.RFC1123))
			}
			return nil
		},
	}
}

func newMeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.controller.Bootstrap(cmd.Context())
			state := app.controller.State()
			if !state.IsAuthenticated() {
				return fmt.Errorf("not logged in")
			}

			principal := state.Principal
			data := pterm.TableData{
				{"ID", principal.ID},
				{"Username", principal.Username},
				{"Email", principal.Email},
				{"Role", string(principal.Role)},
			}
			if principal.FirstName != "" || principal.LastName != "" {
				data = append(data, []string{"Name", principal.FirstName + " " + principal.LastName})
			}
			return pterm.DefaultTable.WithData(data).Render()
		},
	}
}
