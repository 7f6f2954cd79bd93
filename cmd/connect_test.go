package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientworkaccess-cmd/integration--hub/internal/hub"
	"github.com/clientworkaccess-cmd/integration--hub/internal/relay"
)

type webhook struct {
	*httptest.Server
	mu       sync.Mutex
	payloads []relay.Payload
	status   int
}

func newWebhook(t *testing.T, status int) *webhook {
	t.Helper()
	wh := &webhook{status: status}
	wh.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p relay.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		wh.mu.Lock()
		wh.payloads = append(wh.payloads, p)
		wh.mu.Unlock()
		w.WriteHeader(wh.status)
	}))
	t.Cleanup(wh.Close)
	return wh
}

func (wh *webhook) received() []relay.Payload {
	wh.mu.Lock()
	defer wh.mu.Unlock()
	return append([]relay.Payload(nil), wh.payloads...)
}

func testHubEnv(webhookURL, redirectURL string) hubEnv {
	return hubEnv{
		ClientID:     "client-123",
		RedirectURL:  redirectURL,
		WebhookURL:   webhookURL,
		RelayTimeout: 5 * time.Second,
		StorageType:  "memory",
	}
}

func TestRunConnect_PastedCallback(t *testing.T) {
	wh := newWebhook(t, http.StatusOK)
	cfg := testHubEnv(wh.URL, "https://hub.example.com/")

	in := strings.NewReader("user@example.com\nhttps://hub.example.com/?code=abc123&tab=apps\n")
	var out bytes.Buffer

	err := runConnect(context.Background(), cfg, "github-1", "", in, &out)
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "An email address is required to connect GitHub.")
	assert.Contains(t, output, "client_id=client-123")
	assert.Contains(t, output, hub.SuccessMessage("GitHub"))

	payloads := wh.received()
	require.Len(t, payloads, 1)
	assert.Equal(t, "abc123", payloads[0].Code)
	assert.Equal(t, "user@example.com", payloads[0].Email)
	assert.Equal(t, "client-123", payloads[0].ClientID)
	assert.Empty(t, payloads[0].ClientSecret)
}

func TestRunConnect_EmailFlagSkipsPrompt(t *testing.T) {
	wh := newWebhook(t, http.StatusOK)
	cfg := testHubEnv(wh.URL, "https://hub.example.com/")

	in := strings.NewReader("https://hub.example.com/?code=xyz\n")
	var out bytes.Buffer

	err := runConnect(context.Background(), cfg, "github-1", "user@example.com", in, &out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Email: ")

	payloads := wh.received()
	require.Len(t, payloads, 1)
	assert.Equal(t, "xyz", payloads[0].Code)
}

func TestRunConnect_WebhookFailure(t *testing.T) {
	wh := newWebhook(t, http.StatusInternalServerError)
	cfg := testHubEnv(wh.URL, "https://hub.example.com/")

	in := strings.NewReader("user@example.com\nhttps://hub.example.com/?code=abc\n")
	var out bytes.Buffer

	err := runConnect(context.Background(), cfg, "github-1", "", in, &out)
	require.Error(t, err)
	assert.Equal(t, "Failed to notify webhook: relay returned status 500", err.Error())
}

func TestRunConnect_ProviderDenied(t *testing.T) {
	wh := newWebhook(t, http.StatusOK)
	cfg := testHubEnv(wh.URL, "https://hub.example.com/")

	in := strings.NewReader("https://hub.example.com/?error=access_denied&error_description=nope\n")
	var out bytes.Buffer

	err := runConnect(context.Background(), cfg, "github-1", "user@example.com", in, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	assert.Empty(t, wh.received())
}

func TestRunConnect_Unsupported(t *testing.T) {
	wh := newWebhook(t, http.StatusOK)
	cfg := testHubEnv(wh.URL, "https://hub.example.com/")
	var out bytes.Buffer

	err := runConnect(context.Background(), cfg, "discord-1", "", strings.NewReader(""), &out)
	require.ErrorIs(t, err, hub.ErrUnsupported)
	assert.Contains(t, out.String(), "Discord integration is coming soon!")
	assert.Empty(t, wh.received())
}

func TestRunConnect_NotFound(t *testing.T) {
	wh := newWebhook(t, http.StatusOK)
	cfg := testHubEnv(wh.URL, "https://hub.example.com/")

	err := runConnect(context.Background(), cfg, "jira-1", "", strings.NewReader(""), &bytes.Buffer{})
	require.ErrorIs(t, err, hub.ErrIntegrationNotFound)
}

func TestWaitForCallback(t *testing.T) {
	wh := newWebhook(t, http.StatusOK)
	app, err := newHubApp(context.Background(), testHubEnv(wh.URL, "http://127.0.0.1/"), hubAppOptions{})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	_, err = app.hub.SubmitIdentity(context.Background(), "user@example.com")
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		res hub.LoadResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := waitForCallback(ctx, ln, "/", app.hub)
		done <- result{res, err}
	}()

	// A request without callback parameters is ignored.
	resp, err := http.Get(base + "/favicon.ico")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(base + "/?code=from-browser")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, hub.LoadSucceeded, r.res.Outcome)

	payloads := wh.received()
	require.Len(t, payloads, 1)
	assert.Equal(t, "from-browser", payloads[0].Code)
}

func TestWaitForCallback_ContextCancelled(t *testing.T) {
	wh := newWebhook(t, http.StatusOK)
	app, err := newHubApp(context.Background(), testHubEnv(wh.URL, "http://127.0.0.1/"), hubAppOptions{})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = waitForCallback(ctx, ln, "/", app.hub)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCallbackListenAddr(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantAddr string
		wantPath string
		wantOK   bool
	}{
		{name: "localhost with port", url: "http://localhost:8080/", wantAddr: "localhost:8080", wantPath: "/", wantOK: true},
		{name: "loopback ip without port", url: "http://127.0.0.1", wantAddr: "127.0.0.1:80", wantPath: "/", wantOK: true},
		{name: "callback path", url: "http://[::1]:9000/callback", wantAddr: "[::1]:9000", wantPath: "/callback", wantOK: true},
		{name: "https", url: "https://localhost:8443/", wantOK: false},
		{name: "remote host", url: "http://hub.example.com/", wantOK: false},
		{name: "invalid", url: "://bad", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, path, ok := callbackListenAddr(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantAddr, addr)
				assert.Equal(t, tt.wantPath, path)
			}
		})
	}
}

func TestPromptLine(t *testing.T) {
	var out bytes.Buffer

	line, err := promptLine(bufio.NewReader(strings.NewReader("  user@example.com \nrest")), &out, "Email: ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", line)
	assert.Equal(t, "Email: ", out.String())

	line, err = promptLine(bufio.NewReader(strings.NewReader("no-newline")), &out, "")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", line)

	_, err = promptLine(bufio.NewReader(strings.NewReader("")), &out, "")
	assert.Error(t, err)
}

func TestRunRelay(t *testing.T) {
	t.Run("explicit email", func(t *testing.T) {
		wh := newWebhook(t, http.StatusOK)
		var out bytes.Buffer

		err := runRelay(context.Background(), testHubEnv(wh.URL, ""), " code-1 ", "user@example.com", &out)
		require.NoError(t, err)
		assert.Equal(t, "Webhook notified.\n", out.String())

		payloads := wh.received()
		require.Len(t, payloads, 1)
		assert.Equal(t, "code-1", payloads[0].Code)
		assert.Equal(t, "user@example.com", payloads[0].Email)
	})

	t.Run("no stored identity", func(t *testing.T) {
		wh := newWebhook(t, http.StatusOK)

		err := runRelay(context.Background(), testHubEnv(wh.URL, ""), "code-1", "", &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no identity stored")
		assert.Empty(t, wh.received())
	})

	t.Run("webhook failure", func(t *testing.T) {
		wh := newWebhook(t, http.StatusBadGateway)

		err := runRelay(context.Background(), testHubEnv(wh.URL, ""), "code-1", "user@example.com", &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), fmt.Sprintf("relay returned status %d", http.StatusBadGateway))
	})

	t.Run("empty code", func(t *testing.T) {
		err := runRelay(context.Background(), testHubEnv("http://localhost/hook", ""), "  ", "user@example.com", &bytes.Buffer{})
		require.Error(t, err)
	})
}

func TestRunList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), hubEnv{StorageType: "memory"}, &out))

	output := out.String()
	assert.Contains(t, output, "github-1")
	assert.Contains(t, output, "Discord")
	assert.NotContains(t, output, "Stored identity")
}
