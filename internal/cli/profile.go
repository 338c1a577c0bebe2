package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/lifecycle"
)

// ProfileResult is a profile record and its address.
type ProfileResult struct {
	Address string     `json:"address"`
	Profile ir.Profile `json:"profile"`
}

// Text implements Texter.
func (r ProfileResult) Text() string {
	return fmt.Sprintf("profile:   %s\nnamespace: %s\nuser:      %s\nbump:      %d",
		r.Address, r.Profile.Namespace, r.Profile.User, r.Profile.Bump)
}

// CreateOutput wraps lifecycle.CreateResult for display.
type CreateOutput struct {
	lifecycle.CreateResult
}

// Text implements Texter.
func (r CreateOutput) Text() string {
	return fmt.Sprintf("created %s profile %s (bump %d, op %s)",
		r.Profile.Namespace, r.Address, r.Profile.Bump, r.OpID)
}

// DeleteOutput wraps lifecycle.DeleteResult for display.
type DeleteOutput struct {
	lifecycle.DeleteResult
}

// Text implements Texter.
func (r DeleteOutput) Text() string {
	return fmt.Sprintf("deleted %s profile %s (%d bytes reclaimed, op %s)",
		r.Profile.Namespace, r.Address, r.Reclaimed, r.OpID)
}

// NewProfileCommand creates the profile command and its subcommands.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Create, delete, and inspect profiles",
	}
	cmd.AddCommand(newProfileCreateCommand(rootOpts))
	cmd.AddCommand(newProfileDeleteCommand(rootOpts))
	cmd.AddCommand(newProfileShowCommand(rootOpts))
	return cmd
}

func newProfileCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var namespace, user, nonce string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the profile for a namespace and user",
		Long: `Create the single profile slot for (namespace, user).

The request is signed with --key, whose public key must be the user's
authority. The profile address is derived; it cannot be chosen.

Exit codes:
  0 - Profile created
  1 - Operation rejected (error code in output)
  2 - Command error

Example:
  gpl profile create --key <secret> --user <user-address> --namespace gaming`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			ns, err := ir.ParseNamespace(namespace)
			if err != nil {
				return f.Reject("profile create failed", err)
			}
			userAddr, err := parseAddressArg("user", user)
			if err != nil {
				return err
			}
			kp, err := rootOpts.keypair()
			if err != nil {
				return err
			}

			req := lifecycle.CreateRequest{Namespace: ns, User: userAddr, Nonce: nonce}
			msg, err := req.Message()
			if err != nil {
				return f.Reject("profile create failed", err)
			}
			caller, err := kp.Sign(msg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to sign request", err)
			}

			st, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer rootOpts.closeStore(st)

			mgr := lifecycle.NewManager(st, lifecycle.WithLogger(rootOpts.logger()))
			res, err := mgr.Create(cmd.Context(), req, caller)
			if err != nil {
				return f.Reject("profile create failed", err)
			}
			return f.Success(CreateOutput{res})
		},
	}

	cmd.Flags().StringVar(&rootOpts.Key, "key", "", "authority secret key in hex (default $GPL_KEY)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace name (required)")
	cmd.Flags().StringVar(&user, "user", "", "user address in hex (required)")
	cmd.Flags().StringVar(&nonce, "nonce", "", "optional nonce included in the signed request")
	_ = cmd.MarkFlagRequired("namespace")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newProfileDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var profile, user, nonce string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a profile and reclaim its storage",
		Long: `Delete the profile at --profile owned by --user.

The request is signed with --key, whose public key must be the user's
authority. The profile's storage is reclaimed to that authority.

Example:
  gpl profile delete --key <secret> --user <user-address> --profile <profile-address>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			profileAddr, err := parseAddressArg("profile", profile)
			if err != nil {
				return err
			}
			userAddr, err := parseAddressArg("user", user)
			if err != nil {
				return err
			}
			kp, err := rootOpts.keypair()
			if err != nil {
				return err
			}

			req := lifecycle.DeleteRequest{Profile: profileAddr, User: userAddr, Nonce: nonce}
			msg, err := req.Message()
			if err != nil {
				return f.Reject("profile delete failed", err)
			}
			caller, err := kp.Sign(msg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to sign request", err)
			}

			st, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer rootOpts.closeStore(st)

			mgr := lifecycle.NewManager(st, lifecycle.WithLogger(rootOpts.logger()))
			res, err := mgr.Delete(cmd.Context(), req, caller)
			if err != nil {
				return f.Reject("profile delete failed", err)
			}
			return f.Success(DeleteOutput{res})
		},
	}

	cmd.Flags().StringVar(&rootOpts.Key, "key", "", "authority secret key in hex (default $GPL_KEY)")
	cmd.Flags().StringVar(&profile, "profile", "", "profile address in hex (required)")
	cmd.Flags().StringVar(&user, "user", "", "user address in hex (required)")
	cmd.Flags().StringVar(&nonce, "nonce", "", "optional nonce included in the signed request")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newProfileShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <address>",
		Short: "Show a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddressArg("profile address", args[0])
			if err != nil {
				return err
			}

			st, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer rootOpts.closeStore(st)

			f := rootOpts.formatter(cmd)
			profile, err := st.LoadProfile(cmd.Context(), addr)
			if err != nil {
				return f.Reject("profile show failed", err)
			}
			return f.Success(ProfileResult{Address: addr.String(), Profile: profile})
		},
	}
}
