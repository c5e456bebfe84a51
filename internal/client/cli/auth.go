package cli

import (
	"fmt"
	"time"

	"github.com/dkurilov/boardpass/internal/client/api"
	"github.com/dkurilov/boardpass/internal/client/session"
	"github.com/spf13/cobra"
)

func loginCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in with username and password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			username, err := resolveUsername(a, args)
			if err != nil {
				return err
			}
			if err := a.sess.SubmitUsername(ctx, username); err != nil {
				return err
			}

			pw, err := GetPassword(a.out)
			if err != nil {
				return err
			}
			defer wipe(pw)

			if err := a.sess.SubmitPassword(ctx, string(pw)); err != nil {
				if st := a.sess.State(); st.Kind == session.SignInError {
					fmt.Fprintf(a.out, "sign-in failed: %s\n", st.Message)
				}
				return err
			}

			fmt.Fprintf(a.out, "signed in as %s\n", a.sess.State().Username)
			return nil
		},
	}
}

func logoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the local auth record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sess.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "signed out")
			return nil
		},
	}
}

func registerKeyCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "register-key",
		Short: "Register a new passkey for the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sess.RegisterCredential(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "passkey registered (%d on record)\n", len(a.sess.Credentials()))
			return nil
		},
	}
}

func signinKeyCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signin-key [username]",
		Short: "Sign in with a previously registered passkey",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// A username from a previous session is enough; prompt otherwise.
			if a.sess.State().Kind == session.SignedOut || len(args) == 1 {
				username, err := resolveUsername(a, args)
				if err != nil {
					return err
				}
				if err := a.sess.SubmitUsername(ctx, username); err != nil {
					return err
				}
			}

			if err := a.sess.SignInWithCredential(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "signed in as %s\n", a.sess.State().Username)
			return nil
		},
	}
}

func statusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current sign-in state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.sess.State()
			fmt.Fprintf(a.out, "state: %s\n", st.Kind)
			if st.Username != "" {
				fmt.Fprintf(a.out, "user:  %s\n", st.Username)
			}
			if st.Kind == session.SignInError {
				fmt.Fprintf(a.out, "error: %s\n", st.Message)
			}
			if st.Token != "" {
				if exp, err := api.TokenExpiry(st.Token); err == nil && !exp.IsZero() {
					fmt.Fprintf(a.out, "token: expires %s\n", exp.Local().Format(time.RFC1123))
				}
			}
			if creds := a.sess.Credentials(); len(creds) > 0 {
				fmt.Fprintf(a.out, "passkeys:\n")
				for _, c := range creds {
					fmt.Fprintf(a.out, "  %s\n", c.ID)
				}
			}
			return nil
		},
	}
}

func resolveUsername(a *App, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return GetSimpleText(a.in, "Username", a.out)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
