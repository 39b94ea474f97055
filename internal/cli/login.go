package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("KIROSUMI_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password is required")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if strings.TrimSpace(username) == "" {
				return errors.New("--username is required")
			}

			user, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return a.printJSON(cmd.OutOrStdout(), user)
			}
			name := user.Nickname
			if name == "" {
				name = user.Username
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", name, a.session.Server)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (env KIROSUMI_PASSWORD, prompted if empty)")
	return cmd
}
