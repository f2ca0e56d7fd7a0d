package bus

import (
	"time"
)

// StartPolling launches the cross-process polling bridge: every interval,
// durable messages addressed to locally registered agents (or broadcast) and
// authored elsewhere are delivered and marked processed. Passing 0 uses the
// configured PollInterval.
//
// Delivery is at-least-once, not exactly-once: cooperating processes racing
// on the same durable row may both deliver it since no locking or leader
// election is used. Handlers must tolerate duplicates where that matters.
// A no-op without a store or when polling is already running.
func (b *Bus) StartPolling(interval time.Duration) {
	if b.store == nil {
		return
	}
	if interval <= 0 {
		interval = b.pollInterval
	}

	b.mu.Lock()
	if b.pollStop != nil {
		b.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	b.pollStop = stop
	b.pollDone = done
	b.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				b.PollOnce()
			}
		}
	}()
}

// StopPolling stops the polling bridge and waits for the worker to exit.
func (b *Bus) StopPolling() {
	b.mu.Lock()
	stop, done := b.pollStop, b.pollDone
	b.pollStop, b.pollDone = nil, nil
	b.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// PollOnce performs a single polling pass for all locally registered agents.
// Exported so callers with their own scheduling (or tests) can drive the
// bridge directly.
func (b *Bus) PollOnce() {
	if b.store == nil {
		return
	}

	b.mu.Lock()
	agentIDs := append([]string(nil), b.order...)
	b.mu.Unlock()

	seen := make(map[string]bool)
	for _, agentID := range agentIDs {
		stored, err := b.store.UnprocessedCoordinationMessages(agentID)
		if err != nil {
			b.LogWarn("poll failed", "agent_id", agentID, "error", err)
			continue
		}
		for _, row := range stored {
			// A broadcast row shows up once per local agent; deliverMessage
			// already fans out, so deliver each row once per pass.
			if seen[row.ID] {
				continue
			}
			seen[row.ID] = true

			msg, err := row.Message()
			if err != nil {
				b.LogWarn("skipping undecodable durable message", "message_id", row.ID, "error", err)
				continue
			}
			b.deliverMessage(msg)
			if err := b.store.MarkCoordinationMessageProcessed(row.ID); err != nil {
				b.LogWarn("failed to mark message processed", "message_id", row.ID, "error", err)
			}
		}
	}
}
