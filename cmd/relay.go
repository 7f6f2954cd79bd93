package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clientworkaccess-cmd/integration--hub/internal/identity"
	"github.com/clientworkaccess-cmd/integration--hub/internal/relay"
)

func newRelayCmd() *cobra.Command {
	var (
		flags hubFlags
		code  string
		email string
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Deliver an authorization code to the webhook",
		Long: `Deliver an authorization code and email to the webhook once, without
going through the connection flow. Useful to replay a delivery that failed.

The email defaults to the stored identity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runRelay(cmd.Context(), cfg, code, email, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code to deliver (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email to deliver (default: the stored identity)")
	_ = cmd.MarkFlagRequired("code")
	flags.stringVar(cmd, "client-id", "OAuth client ID. Can also use GITHUB_CLIENT_ID env var.",
		func(c *hubEnv) *string { return &c.ClientID })
	flags.addRelayFlags(cmd)
	flags.addStorageFlags(cmd)

	return cmd
}

func runRelay(ctx context.Context, cfg hubEnv, code, email string, out io.Writer) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("authorization code cannot be empty")
	}

	if email == "" {
		stored, err := storedIdentity(ctx, cfg)
		if err != nil {
			return err
		}
		email = stored
	}
	email, err := identity.ValidateEmail(email)
	if err != nil {
		return err
	}

	client, err := relay.New(cfg.relayConfig())
	if err != nil {
		return fmt.Errorf("invalid relay configuration: %w", err)
	}
	if err := client.Deliver(ctx, code, email); err != nil {
		return fmt.Errorf("failed to notify webhook: %w", err)
	}

	fmt.Fprintln(out, "Webhook notified.")
	return nil
}

func storedIdentity(ctx context.Context, cfg hubEnv) (string, error) {
	store, err := identity.NewStore(ctx, cfg.identityConfig(), slog.Default())
	if err != nil {
		return "", fmt.Errorf("failed to open identity store: %w", err)
	}
	defer func() { _ = identity.Close(store) }()

	email, ok, err := store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read identity: %w", err)
	}
	if !ok {
		return "", errors.New("no identity stored; pass --email")
	}
	return email, nil
}
