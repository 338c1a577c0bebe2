package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gpl/internal/address"
	"github.com/roach88/gpl/internal/ir"
)

// DeriveResult is a derived address and the index that produced it.
type DeriveResult struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

// Text implements Texter.
func (r DeriveResult) Text() string {
	return fmt.Sprintf("address: %s\nbump:    %d", r.Address, r.Bump)
}

// NewDeriveCommand creates the derive command and its subcommands.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Compute record addresses without touching storage",
	}
	cmd.AddCommand(newDeriveUserCommand(rootOpts))
	cmd.AddCommand(newDeriveProfileCommand(rootOpts))
	return cmd
}

func newDeriveUserCommand(rootOpts *RootOptions) *cobra.Command {
	var salt string

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Derive a user address from its salt",
		Example: `  gpl derive user --salt 5a00000000000000000000000000000000000000000000000000000000000001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := ir.ParseHash(salt)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid salt", err)
			}
			addr, bump, err := address.UserAddress(h)
			if err != nil {
				return rootOpts.formatter(cmd).Reject("derive failed", err)
			}
			return rootOpts.formatter(cmd).Success(DeriveResult{Address: addr.String(), Bump: bump})
		},
	}

	cmd.Flags().StringVar(&salt, "salt", "", "32-byte user salt in hex (required)")
	_ = cmd.MarkFlagRequired("salt")
	return cmd
}

func newDeriveProfileCommand(rootOpts *RootOptions) *cobra.Command {
	var namespace, user string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Derive the profile slot for a namespace and user",
		Example: `  gpl derive profile --namespace personal --user <user-address>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ns, err := ir.ParseNamespace(namespace)
			if err != nil {
				return f.Reject("derive failed", err)
			}
			userAddr, err := parseAddressArg("user", user)
			if err != nil {
				return err
			}
			addr, bump, err := address.ProfileAddress(ns, userAddr)
			if err != nil {
				return f.Reject("derive failed", err)
			}
			return f.Success(DeriveResult{Address: addr.String(), Bump: bump})
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace name (required)")
	cmd.Flags().StringVar(&user, "user", "", "user address in hex (required)")
	_ = cmd.MarkFlagRequired("namespace")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
