package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientworkaccess-cmd/integration--hub/internal/relay"
)

func assertExclusive(t *testing.T, snap Snapshot) {
	t.Helper()
	set := 0
	if snap.IsConnecting {
		set++
	}
	if snap.Error != "" {
		set++
	}
	if snap.Success {
		set++
	}
	assert.LessOrEqual(t, set, 1, "flags not mutually exclusive in %+v", snap)
}

func TestWatch_InitialSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := f.hub.Watch(ctx)
	select {
	case snap := <-ch:
		assert.Equal(t, PhaseIdle, snap.Phase)
		assert.Len(t, snap.Integrations, 3)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}
}

func TestWatch_FlagsMutuallyExclusive(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, f.store.Set(ctx, "a@x.com"))
	f.relay.block = make(chan struct{})
	f.relay.started = make(chan struct{}, 2)

	ch := f.hub.Watch(ctx)
	var seen []Snapshot
	collect := func() {
		for {
			select {
			case snap := <-ch:
				seen = append(seen, snap)
			default:
				return
			}
		}
	}

	callback := mustURL(t, "http://localhost:8080/?code=abc")
	done := make(chan struct{})
	go func() {
		_, _ = f.hub.HandleLoad(ctx, callback)
		close(done)
	}()
	<-f.relay.started
	collect()
	close(f.relay.block)
	<-done
	collect()

	f.relay.err = &relay.DeliveryError{StatusCode: 502}
	f.relay.block = nil
	_, err := f.hub.HandleLoad(ctx, mustURL(t, "http://localhost:8080/?code=def"))
	require.NoError(t, err)
	collect()
	f.hub.Dismiss()
	collect()

	require.NotEmpty(t, seen)
	for _, snap := range seen {
		assertExclusive(t, snap)
	}
	assert.Equal(t, PhaseIdle, seen[len(seen)-1].Phase, "latest snapshot is always delivered")
}

func TestWatch_LatestWins(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := f.hub.Watch(ctx)
	for i := 0; i < 5; i++ {
		_, _ = f.hub.RequestConnect(ctx, "github-1")
		f.hub.Dismiss()
	}
	_, err := f.hub.SubmitIdentity(ctx, "a@x.com")
	require.NoError(t, err)

	snap := <-ch
	assert.Equal(t, PhaseRedirecting, snap.Phase)
	assert.Equal(t, "a@x.com", snap.Email)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected buffered snapshot %+v", extra)
	default:
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := f.hub.Watch(ctx)
	<-ch
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Transitions after the subscriber left must not block or panic.
	f.hub.Dismiss()
	_, _ = f.hub.RequestConnect(context.Background(), "github-1")
}
