package core

import (
	"strings"
	"testing"
)

func TestIntFromAny(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{float64(1250), 1250},
		{int(7), 7},
		{int64(99), 99},
		{nil, 0},
		{"12", 0},
	}

	for _, tt := range tests {
		if got := IntFromAny(tt.in); got != tt.want {
			t.Errorf("IntFromAny(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSourcePriorityOrder(t *testing.T) {
	order := []ContextSource{SourcePlayerStats, SourceSkillCalc, SourceMoneyGuide, SourceWiki}
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() >= order[i].Priority() {
			t.Errorf("%s priority %d should sort before %s priority %d",
				order[i-1], order[i-1].Priority(), order[i], order[i].Priority())
		}
	}
}

func TestIDPrefixes(t *testing.T) {
	if id := NewTurnID(); !strings.HasPrefix(string(id), "turn_") {
		t.Errorf("turn id = %q, want turn_ prefix", id)
	}
	if id := NewRequestID(); !strings.HasPrefix(string(id), "req_") {
		t.Errorf("request id = %q, want req_ prefix", id)
	}
	if NewTurnID() == NewTurnID() {
		t.Error("turn ids should be unique")
	}
}

func TestSkillTitle(t *testing.T) {
	if got := SkillTitle(" RUNECRAFT "); got != "Runecraft" {
		t.Errorf("SkillTitle = %q, want Runecraft", got)
	}
	if !IsSkill("Hitpoints") || IsSkill("sailing fish") {
		t.Error("IsSkill mismatch")
	}
	if len(Skills) != 23 {
		t.Errorf("len(Skills) = %d, want 23", len(Skills))
	}
}
