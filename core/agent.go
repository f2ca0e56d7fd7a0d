package core

import "time"

// AgentStatus describes the lifecycle state of a registered agent.
type AgentStatus string

const (
	// AgentStatusInitializing marks an agent that has announced itself but is
	// not yet ready to receive messages.
	AgentStatusInitializing AgentStatus = "initializing"
	// AgentStatusReady marks an agent available for delivery.
	AgentStatusReady AgentStatus = "ready"
	// AgentStatusBusy marks an agent currently generating a response.
	AgentStatusBusy AgentStatus = "busy"
	// AgentStatusOffline marks an unregistered agent.
	AgentStatusOffline AgentStatus = "offline"
)

// AgentRecord is the registry entry for an addressable persona agent. The
// bus owns these records: they are created on register, touched on activity
// and removed on unregister.
type AgentRecord struct {
	ID           string      `json:"id"`
	PersonaID    string      `json:"persona_id"`
	Name         string      `json:"name"`
	Status       AgentStatus `json:"status"`
	LastActive   time.Time   `json:"last_active"`
	Capabilities []string    `json:"capabilities,omitempty"`
}

// Clone returns a copy safe for external mutation.
func (r AgentRecord) Clone() AgentRecord {
	clone := r
	clone.Capabilities = append([]string(nil), r.Capabilities...)
	return clone
}
