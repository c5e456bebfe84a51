package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the boardpass command tree.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "boardpass",
		Short:         "Passkey sign-in client for the bulletin board",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// The config layer reads these overrides straight from os.Args before
	// the command tree runs; they are registered here so every invocation
	// that carries them still parses.
	pf := root.PersistentFlags()
	pf.StringP("server", "a", "", "base URL of the backend server")
	pf.StringP("database", "d", "", "path of the local preference database")
	pf.IntP("timeout", "t", 0, "operation timeout in seconds")
	pf.StringP("config", "c", "", "path to a JSON config file")

	root.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		registerKeyCmd(a),
		signinKeyCmd(a),
		statusCmd(a),
		postsCmd(a),
	)

	return root
}
