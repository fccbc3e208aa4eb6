package calc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erg0nix/gnomegpt/internal/osrs"
)

type fakePrices map[string]int

func (f fakePrices) Latest(_ context.Context, name string) (osrs.Price, error) {
	high, ok := f[name]
	if !ok {
		return osrs.Price{}, osrs.ErrItemNotFound
	}
	return osrs.Price{Item: osrs.Item{Name: name}, High: high}, nil
}

func TestXPTable(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{1, 0},
		{2, 83},
		{10, 1154},
		{50, 101333},
		{70, 737627},
		{92, 6517253},
		{99, 13034431},
		{120, 13034431},
	}

	for _, tt := range tests {
		if got := XPForLevel(tt.level); got != tt.want {
			t.Errorf("XPForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{82, 1},
		{83, 2},
		{737626, 69},
		{737627, 70},
		{200000000, 99},
	}

	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestCalculateWithPrices(t *testing.T) {
	calculator, err := New(fakePrices{"Dragon bones": 2000})
	require.NoError(t, err)

	got, err := calculator.Calculate(context.Background(), "Prayer", 70, 71)
	require.NoError(t, err)

	xp := XPBetween(70, 71)
	assert.Equal(t, 76818, xp)
	assert.True(t, strings.HasPrefix(got, "Prayer: Level 70 -> 71\nXP needed: 76,818\n\n- Dragon bones (gilded altar)\n  305 actions | 305x [[Dragon bones]]\n  Cost: 610.0K gp (2.0K ea)\n"), got)
	assert.Contains(t, got, "- Superior dragon bones (gilded altar)")
	assert.NotContains(t, got, "[[Superior dragon bones]]\n  Cost:")
}

func TestCalculateWithoutMethods(t *testing.T) {
	calculator, err := New(nil)
	require.NoError(t, err)

	got, err := calculator.Calculate(context.Background(), "attack", 1, 99)
	require.NoError(t, err)
	assert.Equal(t, "Attack: Level 1 -> 99\nXP needed: 13,034,431\n\nNo cost data for this skill yet. Check the wiki for training methods.", got)
}

func TestCalculateErrors(t *testing.T) {
	calculator, err := New(nil)
	require.NoError(t, err)

	_, err = calculator.Calculate(context.Background(), "sailing", 1, 99)
	assert.True(t, errors.Is(err, ErrUnknownSkill))

	_, err = calculator.Calculate(context.Background(), "cooking", 80, 80)
	assert.Error(t, err)
}

func TestSkillsAreSorted(t *testing.T) {
	calculator, err := New(nil)
	require.NoError(t, err)

	skills := calculator.Skills()
	assert.Equal(t, "construction", skills[0])
	assert.Contains(t, skills, "prayer")
	assert.Len(t, calculator.Methods(" PRAYER "), 4)
}
