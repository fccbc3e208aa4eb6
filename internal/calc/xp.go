package calc

import "math"

const MaxLevel = 99

var xpTable = buildXPTable()

func buildXPTable() [MaxLevel + 1]int {
	var table [MaxLevel + 1]int
	points := 0.0
	for level := 2; level <= MaxLevel; level++ {
		n := float64(level - 1)
		points += math.Floor(n + 300*math.Pow(2, n/7))
		table[level] = int(math.Floor(points / 4))
	}
	return table
}

// XPForLevel returns the experience at which level is reached. Levels are clamped to 1..99.
func XPForLevel(level int) int {
	if level < 1 {
		return 0
	}
	return xpTable[min(level, MaxLevel)]
}

// LevelForXP returns the level reached with xp experience.
func LevelForXP(xp int) int {
	level := 1
	for level < MaxLevel && xpTable[level+1] <= xp {
		level++
	}
	return level
}

// XPBetween is the experience needed to go from one level to another.
func XPBetween(from, to int) int {
	return max(0, XPForLevel(to)-XPForLevel(from))
}
