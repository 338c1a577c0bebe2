package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gpl/internal/credential"
)

// KeygenResult is a fresh authority keypair.
type KeygenResult struct {
	Authority string `json:"authority"`
	Secret    string `json:"secret"`
}

// Text implements Texter.
func (r KeygenResult) Text() string {
	return fmt.Sprintf("authority: %s\nsecret:    %s", r.Authority, r.Secret)
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an authority keypair",
		Long: `Generate a new secp256k1 keypair for use as a user authority.

The authority is the x-only public key; the secret is printed in hex and
can be passed to signing commands with --key or GPL_KEY.

Example:
  gpl keygen
  gpl keygen --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := credential.Generate()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to generate key", err)
			}
			return rootOpts.formatter(cmd).Success(KeygenResult{
				Authority: kp.Address().String(),
				Secret:    kp.Hex(),
			})
		},
	}
}
