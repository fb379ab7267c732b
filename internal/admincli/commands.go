// Package admincli implements the useradmin operator tool: creating users,
// changing roles and revoking sessions directly against the database.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/partsinventory/internal/server/config"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
	"github.com/spf13/cobra"
)

// UserAdmin is the operator surface of services.UserService.
type UserAdmin interface {
	Register(ctx context.Context, requester *models.Identity, in services.RegisterInput) (*models.User, error)
	SetRole(ctx context.Context, username string, role models.Role) (*models.User, error)
	RevokeSessions(ctx context.Context, username string) (int64, error)
	PruneSessions(ctx context.Context) (int64, error)
}

// Opener connects to the backend described by cfg. The returned func
// releases it.
type Opener func(ctx context.Context, cfg *config.Config) (UserAdmin, func() error, error)

var errStoreNotRevocable = errors.New("sessions can only be revoked in the postgres session store")

// operator acts for the person running the tool, who has shell access to
// the database and therefore full rights.
var operator = &models.Identity{UserID: "operator", UserName: "useradmin", Role: models.RoleAdmin}

type rootOptions struct {
	configPath string
	dsn        string
}

// NewRootCmd builds the useradmin command tree.
func NewRootCmd(open Opener) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "useradmin",
		Short: "Manage parts inventory users and sessions",
		Long: `useradmin talks to the inventory database directly.

It reads the same config file and INVENTORY_* environment variables as the
server; --dsn overrides the database connection string.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN")

	cmd.AddCommand(
		createUserCmd(open, opts),
		setRoleCmd(open, opts),
		revokeSessionsCmd(open, opts),
		pruneSessionsCmd(open, opts),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	var args []string
	if o.configPath != "" {
		args = []string{"-c", o.configPath}
	}
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, err
	}
	if o.dsn != "" {
		cfg.DatabaseDSN = o.dsn
	}
	return cfg, nil
}

// withAdmin loads config, opens the backend and runs fn against it.
func withAdmin(cmd *cobra.Command, open Opener, opts *rootOptions, fn func(context.Context, UserAdmin) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	return runWith(cmd, open, cfg, fn)
}

func runWith(cmd *cobra.Command, open Opener, cfg *config.Config, fn func(context.Context, UserAdmin) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	admin, closeFn, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	return fn(ctx, admin)
}

func createUserCmd(open Opener, opts *rootOptions) *cobra.Command {
	var (
		in            services.RegisterInput
		admin         bool
		passwordStdin bool
		interactive   bool
	)

	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.UserName = args[0]
			out := cmd.OutOrStdout()

			if interactive {
				reader := bufio.NewReader(cmd.InOrStdin())
				if err := promptProfile(reader, out, &in); err != nil {
					return err
				}
			}

			var err error
			if passwordStdin {
				in.Password, err = ReadPasswordLine(cmd.InOrStdin())
			} else {
				in.Password, err = GetNewPassword(out)
			}
			if err != nil {
				return err
			}
			if admin {
				in.Admin = &admin
			}

			return withAdmin(cmd, open, opts, func(ctx context.Context, a UserAdmin) error {
				u, err := a.Register(ctx, operator, in)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(out, "created user %s (%s) id=%s\n", u.UserName, u.Role(), u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for missing profile fields")
	return cmd
}

func promptProfile(reader *bufio.Reader, w io.Writer, in *services.RegisterInput) error {
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &in.FirstName},
		{"Last name", &in.LastName},
		{"Email", &in.Email},
	}
	for _, f := range fields {
		if *f.dst != "" {
			continue
		}
		v, err := GetSimpleText(reader, f.prompt, w)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

func setRoleCmd(open Opener, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "set-role <username> <standard|admin>",
		Short:     "Promote or demote a user",
		Long:      "Changes take effect on the user's next request; existing sessions stay valid.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.RoleStandard), string(models.RoleAdmin)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, open, opts, func(ctx context.Context, a UserAdmin) error {
				u, err := a.SetRole(ctx, args[0], models.Role(args[1]))
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.UserName, u.Role())
				return nil
			})
		},
	}
}

func revokeSessionsCmd(open Opener, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <username>",
		Short: "Log a user out everywhere",
		Long:  "Deletes every session row of the user. Only the postgres session store keeps rows to delete.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.SessionStore != config.StorePostgres {
				return fmt.Errorf("%w: session_store is %q", errStoreNotRevocable, cfg.SessionStore)
			}
			return runWith(cmd, open, cfg, func(ctx context.Context, a UserAdmin) error {
				n, err := a.RevokeSessions(ctx, args[0])
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %d session(s) of %s\n", n, args[0])
				return nil
			})
		},
	}
}

func pruneSessionsCmd(open Opener, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune-sessions",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdmin(cmd, open, opts, func(ctx context.Context, a UserAdmin) error {
				n, err := a.PruneSessions(ctx)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired session(s)\n", n)
				return nil
			})
		},
	}
}
