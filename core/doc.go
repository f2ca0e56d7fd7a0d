// Package core contains the shared data model and collaborator contracts of
// CrossTalk: agent registry records, coordination messages with their tagged
// payload union, dialogue sessions, world snapshots, cached context entries
// and the Store / PersonaResolver / WorldProvider interfaces implemented by
// sibling packages. Keeping contracts here prevents higher level packages
// (bus, cache, dialogue) from depending on concrete implementations.
package core
