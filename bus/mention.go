package bus

import (
	"sort"
	"strings"
)

// Mention identifies an agent referenced in free-form user text.
type Mention struct {
	AgentID   string
	AgentName string
}

// DetectMention scans text for a reference to a registered agent. Known-name
// patterns (the plain name and an @name form) are checked first in agent
// registration order; on no match the topic table is scanned by substring
// containment. The first hit wins; nil means no registered agent matched.
//
// This is a best-effort heuristic classifier over free text. Do not lean on
// it for exactness: "neo" inside an unrelated word still matches, and topic
// keywords are plain substrings.
func (b *Bus) DetectMention(text string) *Mention {
	lower := strings.ToLower(text)

	b.mu.Lock()
	type candidate struct{ id, name string }
	agents := make([]candidate, 0, len(b.order))
	byName := make(map[string]candidate, len(b.order))
	for _, id := range b.order {
		rec := b.agents[id]
		c := candidate{id: rec.ID, name: rec.Name}
		agents = append(agents, c)
		byName[strings.ToLower(rec.Name)] = c
	}
	b.mu.Unlock()

	for _, agent := range agents {
		if agent.name == "" {
			continue
		}
		name := strings.ToLower(agent.name)
		if strings.Contains(lower, "@"+name) || strings.Contains(lower, name) {
			return &Mention{AgentID: agent.id, AgentName: agent.name}
		}
	}

	// Topic fallback: keyword containment resolves to a mapped agent name,
	// but only when that agent is currently registered.
	keywords := make([]string, 0, len(b.topicAgents))
	for keyword := range b.topicAgents {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)
	for _, keyword := range keywords {
		if !strings.Contains(lower, strings.ToLower(keyword)) {
			continue
		}
		if agent, ok := byName[strings.ToLower(b.topicAgents[keyword])]; ok {
			return &Mention{AgentID: agent.id, AgentName: agent.name}
		}
	}
	return nil
}
