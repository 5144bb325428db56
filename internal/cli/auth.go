package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLoginCmd создаёт команду входа. Печатает значение cookie сессии
// для переменной ZAKAZ_SESSION или флага --session.
func NewLoginCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, user, err := clientFn().Login(email, password)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Logged in as %s (%s)", user.FullName, user.Role))
			out.Print([]string{"SESSION"}, [][]string{{token}}, map[string]any{"session": token, "user": user})
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email (required)")
	cmd.Flags().StringVar(&password, "password", "", "User password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewLogoutCmd создаёт команду выхода.
func NewLogoutCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().Logout(); err != nil {
				return err
			}
			outputFn().Success("Logged out")
			return nil
		},
	}
}

// NewWhoamiCmd создаёт команду показа пользователя сессии.
func NewWhoamiCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := clientFn().Session()
			if err != nil {
				return err
			}
			outputFn().Print(
				[]string{"ID", "EMAIL", "NAME", "ROLE"},
				[][]string{{user.ID, user.Email, user.FullName, user.Role}},
				user,
			)
			return nil
		},
	}
}
