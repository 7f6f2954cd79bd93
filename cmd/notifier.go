package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/clientworkaccess-cmd/integration--hub/internal/catalog"
	"github.com/clientworkaccess-cmd/integration--hub/internal/hub"
	"github.com/clientworkaccess-cmd/integration--hub/internal/logging"
)

// logNotifier reports notices to the log. Served clients learn about
// prompts through the state stream instead.
type logNotifier struct {
	logger *slog.Logger
}

var _ hub.Notifier = logNotifier{}

func (n logNotifier) NotifyUnsupported(ctx context.Context, name string) {
	n.logger.InfoContext(ctx, hub.UnsupportedMessage(name))
}

func (n logNotifier) RequestIdentity(ctx context.Context, integration catalog.Integration) {
	logging.WithIntegration(n.logger, integration.ID).InfoContext(ctx, "waiting for the user to submit an email")
}

// consoleNotifier prints notices for interactive commands.
type consoleNotifier struct {
	out io.Writer
}

var _ hub.Notifier = consoleNotifier{}

func (n consoleNotifier) NotifyUnsupported(_ context.Context, name string) {
	fmt.Fprintln(n.out, hub.UnsupportedMessage(name))
}

func (n consoleNotifier) RequestIdentity(_ context.Context, integration catalog.Integration) {
	fmt.Fprintf(n.out, "An email address is required to connect %s.\n", integration.Name)
}
