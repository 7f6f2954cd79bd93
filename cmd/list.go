package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clientworkaccess-cmd/integration--hub/internal/catalog"
	"github.com/clientworkaccess-cmd/integration--hub/internal/identity"
)

func newListCmd() *cobra.Command {
	var flags hubFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available integrations and the stored identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	flags.addStorageFlags(cmd)
	return cmd
}

func runList(ctx context.Context, cfg hubEnv, out io.Writer) error {
	store, err := identity.NewStore(ctx, cfg.identityConfig(), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open identity store: %w", err)
	}
	defer func() {
		if err := identity.Close(store); err != nil {
			slog.Error("error closing identity store", slog.Any("error", err))
		}
	}()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tOAUTH")
	for _, it := range catalog.Default().List() {
		oauth := "no"
		if it.SupportsOAuth() {
			oauth = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Status, oauth)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	email, ok, err := store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read identity: %w", err)
	}
	if ok {
		fmt.Fprintf(out, "\nStored identity: %s\n", email)
	}
	return nil
}
