package tutor

import "strings"

// Level is the academic tier a question is asked at.
type Level string

const (
	LevelFoundational Level = "Foundational"
	LevelAdvanced     Level = "Advanced"
)

// Levels returns the recognized levels in display order.
func Levels() []Level {
	return []Level{LevelFoundational, LevelAdvanced}
}

// ParseLevel accepts only the exact level tokens.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelFoundational, LevelAdvanced:
		return Level(s), true
	default:
		return "", false
	}
}

func (l Level) String() string { return string(l) }

// Subject is a tutor subject as exposed by the gateway.
type Subject struct {
	// ID is the route identifier, e.g. "religious_studies".
	ID string `json:"id" yaml:"id"`
	// Name is the canonical display name, e.g. "Religious Studies".
	Name string `json:"name" yaml:"name"`
}

// SubjectKey identifies exactly one persona.
type SubjectKey struct {
	Subject string
	Level   Level
}

func (k SubjectKey) String() string {
	return k.Subject + "/" + string(k.Level)
}

// Persona frames every question asked for one SubjectKey.
type Persona struct {
	Key          SubjectKey
	Instructions string
	Scope        string
	Refusal      string
	Verbosity    string
}

// SystemPrompt renders the persona as a single system instruction.
func (p Persona) SystemPrompt() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Instructions))
	if s := strings.TrimSpace(p.Scope); s != "" {
		b.WriteString("\n\nSCOPE:\n")
		b.WriteString(s)
	}
	if s := strings.TrimSpace(p.Refusal); s != "" {
		b.WriteString("\n\nOUT OF SCOPE:\n")
		b.WriteString(s)
	}
	if s := strings.TrimSpace(p.Verbosity); s != "" {
		b.WriteString("\n\nANSWER LENGTH:\n")
		b.WriteString(s)
	}
	return b.String()
}

// Question is a validated request ready for dispatch.
type Question struct {
	Subject string
	Level   Level
	Text    string
}

// Response is the aggregated answer returned by the non-streaming path.
type Response struct {
	Response string `json:"response"`
	Subject  string `json:"subject"`
	Level    Level  `json:"level"`
}
