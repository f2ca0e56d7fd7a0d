package core

import "fmt"

// Persona is the read-only descriptive data backing an agent's voice. Bio and
// SpeechPattern are short excerpts embedded into generation prompts.
type Persona struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Bio           string   `json:"bio"`
	SpeechPattern string   `json:"speech_pattern"`
	StyleTags     []string `json:"style_tags,omitempty"`
}

// PersonaResolver looks up static persona data by id.
type PersonaResolver interface {
	Resolve(id string) (Persona, error)
}

// StaticPersonaResolver is a fixed in-memory PersonaResolver keyed by persona
// id. Suitable for tests and deployments where persona content ships with the
// binary.
type StaticPersonaResolver struct {
	personas map[string]Persona
}

// NewStaticPersonaResolver builds a resolver from the given personas.
func NewStaticPersonaResolver(personas ...Persona) *StaticPersonaResolver {
	m := make(map[string]Persona, len(personas))
	for _, p := range personas {
		m[p.ID] = p
	}
	return &StaticPersonaResolver{personas: m}
}

// Resolve implements PersonaResolver.
func (r *StaticPersonaResolver) Resolve(id string) (Persona, error) {
	p, ok := r.personas[id]
	if !ok {
		return Persona{}, fmt.Errorf("persona %q not found", id)
	}
	return p, nil
}
