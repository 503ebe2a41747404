package cmd

import (
	"fmt"
	"strings"

	"forex-portal-go/internal/common"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session locally",
	Long: `Sign in with your portal email and password.

The password is read from the terminal without echo, or from stdin when
piped. Signing in replaces any session stored before.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := services.Sessions.Logout(cmd.Context()); err != nil {
			return err
		}
		common.PrintSuccess("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := strings.TrimSpace(loginEmail)
	if email == "" {
		if !isInteractive() {
			return fmt.Errorf("--email is required when stdin is not a terminal")
		}
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Email").
					Value(&email).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("email cannot be empty")
						}
						return nil
					}),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	sess, err := services.Sessions.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	zap.L().Info("Logged in", zap.String("email", sess.Email))
	common.PrintSuccess("Logged in as %s", sess.Email)
	if !sess.ExpiresAt.IsZero() {
		fmt.Printf("  Session expires %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
