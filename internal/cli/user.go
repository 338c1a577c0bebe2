package cli

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gpl/internal/ir"
)

// UserResult is a stored user record and its address.
type UserResult struct {
	Address string  `json:"address"`
	User    ir.User `json:"user"`
}

// Text implements Texter.
func (r UserResult) Text() string {
	return fmt.Sprintf("user:      %s\nauthority: %s\nsalt:      %s\nbump:      %d",
		r.Address, r.User.Authority, r.User.RandomHash, r.User.Bump)
}

// NewUserCommand creates the user command and its subcommands.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user records",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	cmd.AddCommand(newUserShowCommand(rootOpts))
	return cmd
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var salt string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Store a user owned by the signing key's authority",
		Long: `Store a user record whose authority is the public key of --key.

The user address is derived from a 32-byte salt. A random salt is used
unless --salt is given; reusing a salt fails with ADDRESS_ALREADY_IN_USE.

Example:
  gpl user create --key <secret>
  gpl user create --key <secret> --salt <hex>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := rootOpts.keypair()
			if err != nil {
				return err
			}

			var h ir.Hash
			if salt != "" {
				h, err = ir.ParseHash(salt)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid salt", err)
				}
			} else if _, err := rand.Read(h[:]); err != nil {
				return WrapExitError(ExitCommandError, "failed to generate salt", err)
			}

			st, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer rootOpts.closeStore(st)

			f := rootOpts.formatter(cmd)
			addr, user, err := st.CreateUser(cmd.Context(), kp.Address(), h)
			if err != nil {
				return f.Reject("user create failed", err)
			}
			rootOpts.logger().Info("user created", "user", addr.Short(), "authority", kp.Address().Short())
			return f.Success(UserResult{Address: addr.String(), User: user})
		},
	}

	cmd.Flags().StringVar(&rootOpts.Key, "key", "", "authority secret key in hex (default $GPL_KEY)")
	cmd.Flags().StringVar(&salt, "salt", "", "32-byte salt in hex (default random)")
	return cmd
}

func newUserShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <address>",
		Short: "Show a stored user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddressArg("user address", args[0])
			if err != nil {
				return err
			}

			st, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer rootOpts.closeStore(st)

			f := rootOpts.formatter(cmd)
			user, err := st.LoadUser(cmd.Context(), addr)
			if err != nil {
				return f.Reject("user show failed", err)
			}
			return f.Success(UserResult{Address: addr.String(), User: user})
		},
	}
}
