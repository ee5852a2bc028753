package main

import (
	"fmt"

	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/spf13/cobra"
)

func newLoginCommand(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return failed(e.app.Login(cmd.Context(), email, password))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newRegisterCommand(e *env) *cobra.Command {
	var profile users.Profile
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.app.Register(cmd.Context(), profile) {
				return errActionFailed
			}
			if !e.app.IsAuthenticated() {
				fmt.Println("Check your email to verify the account, then log in.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profile.Name, "name", "", "full name")
	cmd.Flags().StringVar(&profile.Email, "email", "", "account email")
	cmd.Flags().StringVar(&profile.Password, "password", "", "account password")
	cmd.Flags().StringVar(&profile.Phone, "phone", "", "phone number (optional)")
	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Run: func(_ *cobra.Command, _ []string) {
			e.app.Logout()
		},
	}
}

func newWhoamiCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Run: func(_ *cobra.Command, _ []string) {
			u := e.app.User()
			if u == nil {
				fmt.Println("Not logged in")
				return
			}
			fmt.Printf("%s <%s> (%s)\n", u.Name, u.Email, u.Role)
		},
	}
}

func newProfileCommand(e *env) *cobra.Command {
	var name, email, phone, password string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in user's profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch users.ProfilePatch
			if cmd.Flags().Changed("name") {
				patch.Name = utils.Ptr(name)
			}
			if cmd.Flags().Changed("email") {
				patch.Email = utils.Ptr(email)
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = utils.Ptr(phone)
			}
			if cmd.Flags().Changed("password") {
				patch.Password = utils.Ptr(password)
			}
			return failed(e.app.UpdateProfile(cmd.Context(), patch))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone number")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	return cmd
}
