// Package crosstalk provides a high-level facade over the message bus, shared
// context cache and dialogue orchestrator enabling rapid construction of
// persona-agent coordination layers. Most applications interact with this
// package by:
//  1. Creating a CrossTalk via New() (optionally overriding the in-memory store)
//  2. Registering one or more agents on the bus
//  3. Starting dialogues or letting agents exchange coordination messages
//
// The facade delegates routing to bus.Bus and session management to
// dialogue.Orchestrator while keeping setup and usage ergonomics concise. All
// defaults are safe for local development and testing; production deployments
// typically supply a SQLite-backed store and a structured logger.
package crosstalk

import (
	"context"
	"errors"
	"fmt"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/crosstalk/bus"
	"github.com/hupe1980/crosstalk/cache"
	"github.com/hupe1980/crosstalk/config"
	"github.com/hupe1980/crosstalk/core"
	"github.com/hupe1980/crosstalk/dialogue"
	"github.com/hupe1980/crosstalk/logging"
	"github.com/hupe1980/crosstalk/model"
	"github.com/hupe1980/crosstalk/model/anthropic"
	"github.com/hupe1980/crosstalk/model/openai"
	"github.com/hupe1980/crosstalk/store"
	"github.com/hupe1980/crosstalk/store/sqlite"
)

// ErrNoModel is returned by dialogue helpers when no model was configured.
var ErrNoModel = errors.New("crosstalk: no model configured")

// Options configures the CrossTalk instance.
type Options struct {
	// Store is the durable layer shared by the bus and the cache. Defaults to
	// an in-memory implementation if not provided.
	Store core.Store

	// WorldProvider supplies world snapshots and events; nil disables the
	// shared context cache.
	WorldProvider core.WorldProvider

	// Model generates dialogue text; nil disables LLM-backed generation and
	// leaves only scripted session management.
	Model model.Model

	// Personas resolves agent IDs to character profiles. Defaults to an empty
	// static registry.
	Personas core.PersonaResolver

	// PollInterval drives the cross-process polling bridge.
	PollInterval time.Duration

	// RefreshInterval drives the world snapshot auto-refresh loop.
	RefreshInterval time.Duration

	// MaxTurns caps dialogue session length when StartDialogue is called
	// without an explicit limit.
	MaxTurns int

	// EventCapacity bounds the cache's recent-event ring buffer. Zero keeps
	// the cache default.
	EventCapacity int

	// TopicAgents maps topic keywords to agent names for mention detection.
	TopicAgents map[string]string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// CrossTalk is the high-level facade aggregating the bus, cache and
// orchestrator.
type CrossTalk struct {
	opts         Options
	bus          *bus.Bus
	cache        *cache.Cache
	orchestrator *dialogue.Orchestrator
}

// New creates a new CrossTalk instance with optional overrides. An unset
// store is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *CrossTalk {
	opts := Options{
		Store:           store.NewInMemory(),
		Personas:        core.NewStaticPersonaResolver(),
		PollInterval:    5 * time.Second,
		RefreshInterval: 30 * time.Second,
		MaxTurns:        dialogue.DefaultMaxTurns,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	b := bus.New(func(o *bus.Options) {
		o.Store = opts.Store
		o.PollInterval = opts.PollInterval
		o.TopicAgents = opts.TopicAgents
		o.Logger = opts.Logger
	})

	ct := &CrossTalk{opts: opts, bus: b}

	if opts.WorldProvider != nil {
		ct.cache = cache.New(opts.WorldProvider, func(o *cache.Options) {
			o.Store = opts.Store
			o.Bus = b
			o.RefreshInterval = opts.RefreshInterval
			if opts.EventCapacity > 0 {
				o.EventCapacity = opts.EventCapacity
			}
			o.Logger = opts.Logger
		})
	}

	if opts.Model != nil {
		ct.orchestrator = dialogue.New(opts.Model, opts.Personas, func(o *dialogue.Options) {
			o.Bus = b
			if ct.cache != nil {
				o.Context = ct.cache
			}
			o.Logger = opts.Logger
		})
	}

	return ct
}

// NewFromConfig builds a CrossTalk instance from loaded configuration: the
// store from StorePath (SQLite when set, in-memory otherwise), the completion
// provider from Provider/Model and the logger from LogLevel/LogFormat.
// Additional option functions apply after the config mapping and win on
// conflict, so callers can still inject a world provider or topic table.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*CrossTalk, error) {
	var st core.Store
	if cfg.StorePath != "" {
		s, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open store %q: %w", cfg.StorePath, err)
		}
		st = s
	} else {
		st = store.NewInMemory()
	}

	llm, err := modelFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, false)

	fns := append([]func(o *Options){func(o *Options) {
		o.Store = st
		o.Model = llm
		o.Logger = logger
		o.PollInterval = cfg.PollInterval
		o.RefreshInterval = cfg.RefreshInterval
		o.MaxTurns = cfg.MaxTurns
		o.EventCapacity = cfg.EventCapacity
	}}, optFns...)

	return New(fns...), nil
}

func modelFromConfig(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		}), nil
	case "mock":
		return model.NewMockModel("mock", "mock"), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Bus returns the message router.
func (ct *CrossTalk) Bus() *bus.Bus { return ct.bus }

// Cache returns the shared context cache, or nil when no world provider was
// configured.
func (ct *CrossTalk) Cache() *cache.Cache { return ct.cache }

// Orchestrator returns the dialogue orchestrator, or nil when no model was
// configured.
func (ct *CrossTalk) Orchestrator() *dialogue.Orchestrator { return ct.orchestrator }

// RegisterAgent adds an agent to the underlying bus.
func (ct *CrossTalk) RegisterAgent(rec core.AgentRecord) {
	ct.bus.RegisterAgent(rec)
}

// StartDialogue opens a dialogue session on the orchestrator. A non-positive
// maxTurns applies the configured default.
func (ct *CrossTalk) StartDialogue(id, topic string, participants []string, initiator string, maxTurns int) (*core.DialogueSession, error) {
	if ct.orchestrator == nil {
		return nil, ErrNoModel
	}
	if maxTurns <= 0 {
		maxTurns = ct.opts.MaxTurns
	}
	return ct.orchestrator.StartDialogue(id, topic, participants, initiator, maxTurns)
}

// Start brings up the background loops: store polling on the bus and, when a
// cache is configured, snapshot auto-refresh after an initial load.
func (ct *CrossTalk) Start(ctx context.Context) error {
	if ct.cache != nil {
		if err := ct.cache.Initialize(ctx); err != nil {
			return err
		}
		ct.cache.StartAutoRefresh(ct.opts.RefreshInterval)
	}
	ct.bus.StartPolling(ct.opts.PollInterval)
	return nil
}

// Stop halts the background loops started by Start.
func (ct *CrossTalk) Stop() {
	ct.bus.StopPolling()
	if ct.cache != nil {
		ct.cache.StopAutoRefresh()
	}
}
