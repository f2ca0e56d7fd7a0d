package bus

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/crosstalk/core"
	"github.com/hupe1980/crosstalk/logging"
)

// Handler processes a message delivered to an agent. A returned error is
// logged with (recipient, kind) context and never aborts sibling delivery.
type Handler func(msg core.CoordinationMessage) error

// Options configures a Bus instance.
type Options struct {
	// Store mirrors outbound messages for cross-process pickup and feeds the
	// polling bridge. Nil disables both; the bus stays purely in-process.
	Store core.Store

	// PollInterval drives the cross-process polling bridge.
	PollInterval time.Duration

	// TopicAgents maps topic keywords to agent names for mention detection
	// fallback (e.g. "pokemon" -> "Professor").
	TopicAgents map[string]string

	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// Bus routes coordination messages between registered agents. All public
// methods are safe for concurrent use; queue manipulation and the drain guard
// live under one mutex so a message enqueued during a drain is picked up by
// the running drain rather than starting a second one.
type Bus struct {
	core.LoggerAdapter

	mu       sync.Mutex
	agents   map[string]*core.AgentRecord
	order    []string // registration order, drives fan-out and mention scans
	handlers map[string]map[core.PayloadKind][]Handler
	queue    []core.CoordinationMessage
	draining bool

	store        core.Store
	pollInterval time.Duration
	topicAgents  map[string]string

	pollStop chan struct{}
	pollDone chan struct{}
}

// New constructs a Bus with optional overrides.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{
		PollInterval: 5 * time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Bus{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		agents:        make(map[string]*core.AgentRecord),
		handlers:      make(map[string]map[core.PayloadKind][]Handler),
		store:         opts.Store,
		pollInterval:  opts.PollInterval,
		topicAgents:   opts.TopicAgents,
	}
}

// RegisterAgent upserts a registry entry, marks it ready and announces it
// with a low-priority heartbeat broadcast. Re-registering an agent keeps its
// handler table; registration is idempotent.
func (b *Bus) RegisterAgent(record core.AgentRecord) {
	b.mu.Lock()
	rec := record.Clone()
	rec.Status = core.AgentStatusReady
	rec.LastActive = time.Now().UTC()
	if _, exists := b.agents[rec.ID]; !exists {
		b.order = append(b.order, rec.ID)
		b.handlers[rec.ID] = make(map[core.PayloadKind][]Handler)
	}
	b.agents[rec.ID] = &rec
	b.mu.Unlock()

	b.LogDebug("agent registered", "agent_id", rec.ID, "name", rec.Name)
	b.Broadcast(rec.ID, core.HeartbeatPayload{
		AgentID:      rec.ID,
		Name:         rec.Name,
		Status:       core.AgentStatusReady,
		Capabilities: rec.Capabilities,
	}, core.PriorityLow)
}

// UnregisterAgent marks the agent offline and removes its registry entry and
// handler table. Unknown ids are a no-op.
func (b *Bus) UnregisterAgent(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.agents[id]
	if !ok {
		return
	}
	rec.Status = core.AgentStatusOffline
	delete(b.agents, id)
	delete(b.handlers, id)
	for i, agentID := range b.order {
		if agentID == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// GetAgent returns a copy of the registry entry for id.
func (b *Bus) GetAgent(id string) (core.AgentRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.agents[id]
	if !ok {
		return core.AgentRecord{}, false
	}
	return rec.Clone(), true
}

// Agents returns copies of all registry entries in registration order.
func (b *Bus) Agents() []core.AgentRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.AgentRecord, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.agents[id].Clone())
	}
	return out
}

// SetStatus updates an agent's status and activity timestamp.
func (b *Bus) SetStatus(id string, status core.AgentStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rec, ok := b.agents[id]; ok {
		rec.Status = status
		rec.LastActive = time.Now().UTC()
	}
}

// OnMessage registers a handler invoked when a payload of the given kind is
// delivered to agentID. Multiple handlers per (agent, kind) are invoked in
// registration order.
func (b *Bus) OnMessage(agentID string, kind core.PayloadKind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	table, ok := b.handlers[agentID]
	if !ok {
		table = make(map[core.PayloadKind][]Handler)
		b.handlers[agentID] = table
	}
	table[kind] = append(table[kind], handler)
}

// OffMessage removes all handlers for the (agent, kind) pair.
func (b *Bus) OffMessage(agentID string, kind core.PayloadKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if table, ok := b.handlers[agentID]; ok {
		delete(table, kind)
	}
}

// SendOptions carries the optional send parameters.
type SendOptions struct {
	Priority core.Priority
	ReplyTo  string
	ExpireIn time.Duration
}

// Send enqueues a point-to-point message and returns its id. The recipient
// must be a concrete agent id; use Broadcast for fan-out. The message is
// best-effort mirrored to the durable store before queue processing runs.
func (b *Bus) Send(from, to string, payload core.Payload, optFns ...func(o *SendOptions)) (string, error) {
	if to == "" {
		return "", fmt.Errorf("send: recipient must be a concrete agent id")
	}
	return b.dispatch(from, to, payload, optFns...)
}

// Broadcast enqueues a message for all registered agents except the sender,
// resolved at delivery time, and returns its id.
func (b *Bus) Broadcast(from string, payload core.Payload, priority core.Priority) string {
	id, _ := b.dispatch(from, "", payload, func(o *SendOptions) { o.Priority = priority })
	return id
}

func (b *Bus) dispatch(from, to string, payload core.Payload, optFns ...func(o *SendOptions)) (string, error) {
	opts := SendOptions{Priority: core.PriorityNormal}
	for _, fn := range optFns {
		fn(&opts)
	}

	msg := core.NewMessage(from, to, payload, opts.Priority)
	msg.ReplyTo = opts.ReplyTo
	if opts.ExpireIn > 0 {
		expires := msg.Timestamp.Add(opts.ExpireIn)
		msg.ExpiresAt = &expires
	}

	b.mirror(msg)

	b.mu.Lock()
	b.enqueueLocked(msg)
	if rec, ok := b.agents[from]; ok {
		rec.LastActive = time.Now().UTC()
	}
	b.mu.Unlock()

	b.processQueue()
	return msg.ID, nil
}

// mirror writes the message to the durable store. Failures are logged and
// swallowed; the in-memory send has already succeeded and is not rolled back.
func (b *Bus) mirror(msg core.CoordinationMessage) {
	if b.store == nil {
		return
	}
	if _, err := b.store.SendCoordinationMessage(msg.From, msg.To, msg.Payload); err != nil {
		b.LogWarn("failed to mirror message", "message_id", msg.ID, "kind", string(msg.Payload.Kind()), "error", err)
	}
}

// enqueueLocked applies the positional priority rule. Urgent goes to the
// front; high is inserted immediately before the first non-urgent entry
// present at enqueue time (after all urgent entries, ahead of all normal/low
// entries); normal and low are appended at the tail.
//
// This is deliberately NOT a multi-level priority heap: FIFO within each
// effective class is defined by insertion position relative to the queue
// state at enqueue time, and the two schemes diverge when high and low
// messages interleave across many enqueues. Callers depend on the positional
// ordering, so do not "fix" this into a heap.
func (b *Bus) enqueueLocked(msg core.CoordinationMessage) {
	switch msg.Priority {
	case core.PriorityUrgent:
		b.queue = append([]core.CoordinationMessage{msg}, b.queue...)
	case core.PriorityHigh:
		idx := len(b.queue)
		for i, queued := range b.queue {
			if queued.Priority != core.PriorityUrgent {
				idx = i
				break
			}
		}
		b.queue = append(b.queue[:idx], append([]core.CoordinationMessage{msg}, b.queue[idx:]...)...)
	default:
		b.queue = append(b.queue, msg)
	}
}

// processQueue drains the queue. A boolean in-flight guard ensures only one
// drain runs at a time; the loop re-reads the queue length each iteration so
// messages enqueued by handlers during a drain are processed before the loop
// exits instead of starting a second concurrent drain.
func (b *Bus) processQueue() {
	b.mu.Lock()
	if b.draining {
		b.mu.Unlock()
		return
	}
	b.draining = true
	for len(b.queue) > 0 {
		msg := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()
		b.deliverMessage(msg)
		b.mu.Lock()
	}
	b.draining = false
	b.mu.Unlock()
}

// deliverMessage resolves recipients (the explicit To, or all registered
// agents except the sender) and invokes matching handlers sequentially. A
// handler error or panic is logged with (recipient, kind) context and does
// not prevent delivery to other handlers or recipients.
func (b *Bus) deliverMessage(msg core.CoordinationMessage) {
	if msg.IsExpired(time.Now()) {
		b.LogDebug("dropping expired message", "message_id", msg.ID, "kind", string(msg.Payload.Kind()))
		return
	}

	b.mu.Lock()
	var recipients []string
	if msg.IsBroadcast() {
		for _, id := range b.order {
			if id != msg.From {
				recipients = append(recipients, id)
			}
		}
	} else if _, ok := b.agents[msg.To]; ok {
		recipients = []string{msg.To}
	}
	kind := msg.Payload.Kind()
	handlersByRecipient := make(map[string][]Handler, len(recipients))
	for _, id := range recipients {
		if table, ok := b.handlers[id]; ok {
			handlersByRecipient[id] = append([]Handler(nil), table[kind]...)
		}
	}
	b.mu.Unlock()

	for _, recipient := range recipients {
		for _, handler := range handlersByRecipient[recipient] {
			b.invoke(recipient, kind, handler, msg)
		}
	}
}

// invoke runs a single handler, converting panics into logged errors.
func (b *Bus) invoke(recipient string, kind core.PayloadKind, handler Handler, msg core.CoordinationMessage) {
	defer func() {
		if r := recover(); r != nil {
			b.LogError("handler panicked", "recipient", recipient, "kind", string(kind), "panic", fmt.Sprintf("%v", r))
		}
	}()
	if err := handler(msg); err != nil {
		b.LogError("handler failed", "recipient", recipient, "kind", string(kind), "error", err)
	}
}

// CleanOldMessages sweeps durable messages older than maxAge. Intended for
// shutdown or periodic maintenance; a no-op without a store.
func (b *Bus) CleanOldMessages(maxAge time.Duration) (int, error) {
	if b.store == nil {
		return 0, nil
	}
	return b.store.CleanOldCoordinationMessages(maxAge)
}
