package root

import (
	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/taskdesk/internal/model"
)

func newLoginCmd(c *cli) *cobra.Command {
	var creds model.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return consumeFlash(c, c.app.form.Login(cmd.Context(), creds))
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "Password")

	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var reg model.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return consumeFlash(c, c.app.form.Register(cmd.Context(), reg))
		},
	}

	cmd.Flags().StringVarP(&reg.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "Password")
	cmd.Flags().StringVarP(&reg.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "First name")

	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.form.Logout(cmd.Context())
		},
	}
}
