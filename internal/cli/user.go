package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the credential file",
	}
	cmd.AddCommand(a.newUserAddCmd(), a.newUserCheckCmd())
	return cmd
}

// password returns --password, or the first line of stdin when the flag
// is empty.
func (a *app) password(cmd *cobra.Command) (string, error) {
	if a.flags.password != "" {
		return a.flags.password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) newUserAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>",
		Short: "Add a user or change their password",
		Long:  "Add stores a bcrypt hash of the password given with --password or on stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.password(cmd)
			if err != nil {
				return err
			}
			creds := a.credentials()
			if err := creds.SetPassword(args[0], pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password set for %s in %s\n", strings.TrimSpace(args[0]), creds.Path())
			return nil
		},
	}
}

func (a *app) newUserCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <username>",
		Short: "Verify a username and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.password(cmd)
			if err != nil {
				return err
			}
			user, err := a.credentials().Login(args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", user)
			return nil
		},
	}
}
