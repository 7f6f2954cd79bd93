package hub

import "context"

type subscriber struct {
	ch chan Snapshot
}

// Watch streams snapshots until ctx is done, then closes the channel.
// The current snapshot is delivered first. A slow reader skips intermediate
// snapshots but always ends up with the latest one.
func (o *Orchestrator) Watch(ctx context.Context) <-chan Snapshot {
	sub := &subscriber{ch: make(chan Snapshot, 1)}

	o.mu.Lock()
	sub.ch <- o.snapshotLocked()
	o.subs[sub] = struct{}{}
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.subs, sub)
		close(sub.ch)
		o.mu.Unlock()
	}()

	return sub.ch
}

// publishLocked offers snap to every subscriber, replacing any snapshot
// still sitting unread in its buffer.
func (o *Orchestrator) publishLocked(snap Snapshot) {
	for sub := range o.subs {
		select {
		case sub.ch <- snap:
			continue
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}
