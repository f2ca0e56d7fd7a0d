package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/crosstalk/core"
	"github.com/hupe1980/crosstalk/internal/util"
	"github.com/hupe1980/crosstalk/model"
)

// turnLinePattern matches one scripted transcript line in either the
// requested "[Name]: text" form or the bare "Name: text" form providers
// sometimes fall back to.
var turnLinePattern = regexp.MustCompile(`^\s*\[?([^\[\]:]+?)\]?\s*:\s*(.+)$`)

// handoffPattern extracts a best-effort handoff suggestion from generated
// reply text. It is a heuristic over free text; matches are only accepted
// when they name another known agent.
var handoffPattern = regexp.MustCompile(`(?i)\b(?:ask|talk to|check with)\s+@?([A-Za-z][A-Za-z0-9_-]*)`)

// Fixed sentiment lexicons for scripted dialogues. Occurrence counting only;
// ties resolve to neutral.
var (
	positiveWords = []string{"good", "great", "happy", "love", "wonderful", "excellent", "glad", "hope", "thanks"}
	negativeWords = []string{"bad", "terrible", "sad", "hate", "awful", "angry", "worried", "fear", "sorry"}
)

const scriptPromptTemplate = `You are scripting a short in-character conversation about "{{.Topic}}".

Characters:
{{.Characters}}
{{if .Context}}Shared context:
{{.Context}}

{{end}}Write at most {{.MaxTurns}} lines, one line per turn, strictly in the format:
[Name]: message

{{.Initiator}} speaks first, then the others take turns in order.{{if .Style}} Style: {{.Style}}.{{end}} Output only the transcript lines.`

// GenerateDialogueOptions carries the optional scripted-generation inputs.
type GenerateDialogueOptions struct {
	// Context is extra situational text appended to the shared-context block.
	Context string
	// MaxTurns bounds the requested transcript; <= 0 applies DefaultMaxTurns.
	MaxTurns int
	// Style is a free-form tone hint (e.g. "tense", "playful").
	Style string
}

// GeneratedDialogue is the parsed result of a scripted generation. An empty
// Turns list is a valid, non-error result when parsing finds nothing usable.
type GeneratedDialogue struct {
	Turns     []core.DialogueTurn `json:"turns"`
	Sentiment string              `json:"sentiment"` // positive, negative or neutral
	Summary   string              `json:"summary"`
}

// GenerateDialogue produces a one-shot scripted transcript between the given
// participants. Every participant must resolve to a persona. Provider
// failures propagate; unparseable output degrades to an empty neutral result.
func (o *Orchestrator) GenerateDialogue(ctx context.Context, topic string, participants []string, initiator string, optFns ...func(*GenerateDialogueOptions)) (*GeneratedDialogue, error) {
	opts := GenerateDialogueOptions{MaxTurns: DefaultMaxTurns}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}

	personas := make([]core.Persona, 0, len(participants))
	for _, id := range participants {
		persona, err := o.resolvePersona(id)
		if err != nil {
			return nil, fmt.Errorf("generate dialogue: participant %q: %w", id, err)
		}
		personas = append(personas, persona)
	}
	initiatorName := personas[0].Name
	for i, id := range participants {
		if id == initiator {
			initiatorName = personas[i].Name
			break
		}
	}

	var characters strings.Builder
	for _, p := range personas {
		fmt.Fprintf(&characters, "- %s: %s Speaks like: %s\n", p.Name, excerpt(p.Bio), excerpt(p.SpeechPattern))
	}
	contextBlock := o.formatContext()
	if opts.Context != "" {
		if contextBlock != "" {
			contextBlock += "\n"
		}
		contextBlock += opts.Context
	}

	prompt, err := util.RenderTemplate(scriptPromptTemplate, map[string]any{
		"Topic":      topic,
		"Characters": characters.String(),
		"Context":    contextBlock,
		"MaxTurns":   opts.MaxTurns,
		"Initiator":  initiatorName,
		"Style":      opts.Style,
	})
	if err != nil {
		return nil, fmt.Errorf("generate dialogue: render prompt: %w", err)
	}

	resp, err := o.llm.Generate(ctx, model.Request{
		Instructions: prompt,
		Messages:     []model.Message{{Role: "user", Text: "Begin the conversation."}},
	})
	if err != nil {
		return nil, fmt.Errorf("generate dialogue: %w", err)
	}

	turns := parseTranscript(resp.Text, personas)
	result := &GeneratedDialogue{
		Turns:     turns,
		Sentiment: aggregateSentiment(turns),
		Summary:   fmt.Sprintf("%s exchanged %d turns about %s.", joinNames(personas), len(turns), topic),
	}
	o.LogDebug("dialogue generated", "topic", topic, "turns", len(turns), "sentiment", result.Sentiment)
	return result, nil
}

// parseTranscript scans provider output for transcript lines, keeping only
// those whose speaker matches a participant case-insensitively. Unmatched
// lines are silently dropped rather than causing a hard failure.
func parseTranscript(text string, personas []core.Persona) []core.DialogueTurn {
	byName := make(map[string]string, len(personas))
	for _, p := range personas {
		byName[strings.ToLower(p.Name)] = p.Name
	}
	turns := []core.DialogueTurn{}
	for _, line := range strings.Split(text, "\n") {
		m := turnLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		canonical, ok := byName[strings.ToLower(strings.TrimSpace(m[1]))]
		if !ok {
			continue
		}
		turns = append(turns, core.DialogueTurn{Speaker: canonical, Message: strings.TrimSpace(m[2])})
	}
	return turns
}

// aggregateSentiment counts fixed positive vs negative lexicon hits across
// all turns; ties (including the empty transcript) resolve to neutral.
func aggregateSentiment(turns []core.DialogueTurn) string {
	positive, negative := 0, 0
	for _, turn := range turns {
		text := strings.ToLower(turn.Message)
		for _, w := range positiveWords {
			positive += strings.Count(text, w)
		}
		for _, w := range negativeWords {
			negative += strings.Count(text, w)
		}
	}
	switch {
	case positive > negative:
		return "positive"
	case negative > positive:
		return "negative"
	default:
		return "neutral"
	}
}

// Response is the result of a single-turn persona reply. HandoffTo names
// another agent the reply suggested involving, or is empty.
type Response struct {
	Text      string `json:"text"`
	HandoffTo string `json:"handoff_to,omitempty"`
}

// GenerateResponse produces a single in-character reply for the agent,
// optionally annotated with notes about agents the user mentioned and the
// other currently active agents. Provider failures propagate.
func (o *Orchestrator) GenerateResponse(ctx context.Context, agentID, message string, history []model.Message, mentioned []string) (*Response, error) {
	persona, err := o.resolvePersona(agentID)
	if err != nil {
		return nil, fmt.Errorf("generate response: agent %q: %w", agentID, err)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "You are %s. %s\nSpeak like: %s\n", persona.Name, persona.Bio, persona.SpeechPattern)
	if contextBlock := o.formatContext(); contextBlock != "" {
		fmt.Fprintf(&prompt, "\nShared context:\n%s\n", contextBlock)
	}
	for _, id := range mentioned {
		if id == agentID {
			continue
		}
		if p, err := o.resolvePersona(id); err == nil {
			fmt.Fprintf(&prompt, "\nThe user mentioned %s: %s", p.Name, excerpt(p.Bio))
		}
	}
	if others := o.otherAgentNames(agentID); len(others) > 0 {
		fmt.Fprintf(&prompt, "\nOther active agents: %s.", strings.Join(others, ", "))
	}

	messages := append(append([]model.Message(nil), history...), model.Message{Role: "user", Text: message})
	resp, err := o.llm.Generate(ctx, model.Request{Instructions: prompt.String(), Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}

	return &Response{
		Text:      resp.Text,
		HandoffTo: o.extractHandoff(resp.Text, agentID),
	}, nil
}

// extractHandoff scans reply text for a trigger phrase naming another known
// agent. Purely heuristic: no guarantee beyond "a known name followed a
// trigger phrase".
func (o *Orchestrator) extractHandoff(text, selfID string) string {
	if o.bus == nil {
		return ""
	}
	matches := handoffPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	agents := o.bus.Agents()
	for _, m := range matches {
		candidate := strings.ToLower(m[1])
		for _, rec := range agents {
			if rec.ID == selfID {
				continue
			}
			if strings.ToLower(rec.Name) == candidate {
				return rec.ID
			}
		}
	}
	return ""
}

func (o *Orchestrator) otherAgentNames(selfID string) []string {
	if o.bus == nil {
		return nil
	}
	var names []string
	for _, rec := range o.bus.Agents() {
		if rec.ID == selfID || rec.Name == "" {
			continue
		}
		names = append(names, rec.Name)
	}
	return names
}

// HandleMention generates a brief in-character acknowledgment for a mention
// message. It returns "" (with a nil error) when the payload is not a
// mention, the persona cannot be resolved, or the provider returns empty
// text; provider errors propagate.
func (o *Orchestrator) HandleMention(ctx context.Context, msg core.CoordinationMessage) (string, error) {
	mention, ok := msg.Payload.(core.MentionPayload)
	if !ok {
		return "", nil
	}
	persona, err := o.resolvePersona(mention.AgentID)
	if err != nil {
		o.LogDebug("mention for unresolvable agent", "agent_id", mention.AgentID, "error", err)
		return "", nil
	}

	prompt := fmt.Sprintf(
		"You are %s. %s\nSpeak like: %s\nSomeone just mentioned you. Reply with a brief in-character acknowledgment, one sentence.",
		persona.Name, excerpt(persona.Bio), excerpt(persona.SpeechPattern),
	)
	resp, err := o.llm.Generate(ctx, model.Request{
		Instructions: prompt,
		Messages:     []model.Message{{Role: "user", Text: mention.Text}},
	})
	if err != nil {
		return "", fmt.Errorf("handle mention: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// excerpt trims long persona fields to a prompt-friendly length, cutting on
// a rune boundary so multi-byte text stays valid UTF-8.
func excerpt(s string) string {
	const max = 160
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func joinNames(personas []core.Persona) string {
	names := make([]string, len(personas))
	for i, p := range personas {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
