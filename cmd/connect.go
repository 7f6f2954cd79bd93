package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clientworkaccess-cmd/integration--hub/internal/hub"
)

const defaultConnectTimeout = 5 * time.Minute

func newConnectCmd() *cobra.Command {
	var (
		flags   hubFlags
		email   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "connect <integration-id>",
		Short: "Connect an integration from the terminal",
		Long: `Start the OAuth authorization of an integration, wait for the provider
to redirect back and relay the authorization code to the webhook.

When the redirect URL points at localhost the command listens on it and
completes on its own. Otherwise, paste the URL the browser was sent to.

Run "integrationhub list" to see the available integration IDs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
			defer cancelTimeout()

			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return runConnect(ctx, cfg, args[0], email, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email to store if none is stored yet (prompted when empty)")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultConnectTimeout, "How long to wait for the provider callback")
	flags.addOAuthFlags(cmd)
	flags.addRelayFlags(cmd)
	flags.addStorageFlags(cmd)

	return cmd
}

func runConnect(ctx context.Context, cfg hubEnv, integrationID, email string, in io.Reader, out io.Writer) error {
	app, err := newHubApp(ctx, cfg, hubAppOptions{Notifier: consoleNotifier{out: out}})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("error closing identity store", slog.Any("error", err))
		}
	}()

	reader := bufio.NewReader(in)

	res, err := app.hub.RequestConnect(ctx, integrationID)
	if err != nil {
		return err
	}

	authURL := res.RedirectURL
	if res.Outcome == hub.ConnectIdentityRequired {
		if email == "" {
			email, err = promptLine(reader, out, "Email: ")
			if err != nil {
				return fmt.Errorf("failed to read email: %w", err)
			}
		}
		authURL, err = app.hub.SubmitIdentity(ctx, email)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Open this URL in your browser to authorize %s:\n\n  %s\n\n", res.Integration.Name, authURL)

	var result hub.LoadResult
	if addr, path, ok := callbackListenAddr(cfg.RedirectURL); ok {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen for the callback on %s: %w", addr, err)
		}
		fmt.Fprintf(out, "Waiting for the callback on %s ...\n", cfg.RedirectURL)
		result, err = waitForCallback(ctx, ln, path, app.hub)
		if err != nil {
			return err
		}
	} else {
		raw, err := promptLine(reader, out, "Paste the URL your browser was redirected to: ")
		if err != nil {
			return fmt.Errorf("failed to read callback URL: %w", err)
		}
		current, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid callback URL: %w", err)
		}
		result, err = app.hub.HandleLoad(ctx, current)
		if err != nil {
			return err
		}
	}

	return reportLoad(ctx, out, app.hub, result)
}

// reportLoad prints the outcome of a callback and turns failures into errors.
func reportLoad(ctx context.Context, out io.Writer, h *hub.Orchestrator, result hub.LoadResult) error {
	switch result.Outcome {
	case hub.LoadSucceeded:
		fmt.Fprintln(out, h.Snapshot(ctx).Notice)
		return nil
	case hub.LoadFailed:
		return errors.New(result.Reason)
	default:
		return errors.New("the URL does not carry an authorization code")
	}
}

// callbackListenAddr returns the local address and path to listen on for
// a plain HTTP loopback redirect URL.
func callbackListenAddr(redirectURL string) (addr, path string, ok bool) {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Scheme != "http" {
		return "", "", false
	}
	host := u.Hostname()
	if host != "localhost" && !net.ParseIP(host).IsLoopback() {
		return "", "", false
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, true
}

// waitForCallback serves path on ln until a request carrying callback
// parameters has been handled, then returns its result. Requests without
// callback parameters are answered and ignored.
func waitForCallback(ctx context.Context, ln net.Listener, path string, h *hub.Orchestrator) (hub.LoadResult, error) {
	type outcome struct {
		res hub.LoadResult
		err error
	}
	done := make(chan outcome, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		res, err := h.HandleLoad(r.Context(), r.URL)
		switch {
		case err != nil:
			http.Error(w, err.Error(), http.StatusConflict)
		case res.Outcome == hub.LoadNoCallback:
			http.Error(w, "no authorization code in this request", http.StatusBadRequest)
			return
		case res.Outcome == hub.LoadFailed:
			http.Error(w, res.Reason, http.StatusBadGateway)
		default:
			fmt.Fprintln(w, h.Snapshot(r.Context()).Notice, "You can close this window.")
		}
		select {
		case done <- outcome{res: res, err: err}:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case <-ctx.Done():
		return hub.LoadResult{}, fmt.Errorf("waiting for the callback: %w", ctx.Err())
	case o := <-done:
		return o.res, o.err
	}
}

// promptLine writes prompt and reads one trimmed line.
func promptLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
