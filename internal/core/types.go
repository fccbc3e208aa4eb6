package core

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, CreatedAt: time.Now()}
}

// Source tags for context blocks, in priority order.
type ContextSource string

const (
	SourcePlayerStats ContextSource = "player_stats"
	SourceSkillCalc   ContextSource = "skill_calc"
	SourceMoneyGuide  ContextSource = "money_guide"
	SourceWiki        ContextSource = "wiki"
)

type ContextBlock struct {
	Source   ContextSource `json:"source"`
	Text     string        `json:"text"`
	Priority int           `json:"priority"`
}

// Priority returns the fixed ordering slot for a context source; lower sorts first.
func (s ContextSource) Priority() int {
	switch s {
	case SourcePlayerStats:
		return 0
	case SourceSkillCalc:
		return 1
	case SourceMoneyGuide:
		return 2
	case SourceWiki:
		return 3
	default:
		return 4
	}
}
