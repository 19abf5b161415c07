package reward

import "testing"

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{-100, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{129999, 24},
		{130000, 25},
		{149999, 25},
		{150000, 26}, // one step beyond the table
		{190000, 28},
	}
	for _, tc := range cases {
		if got := LevelForXP(tc.xp); got != tc.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestLevelIsMonotone(t *testing.T) {
	prev := 0
	for xp := int64(0); xp <= 300000; xp += 500 {
		level := LevelForXP(xp)
		if level < prev {
			t.Fatalf("level decreased at xp=%d: %d -> %d", xp, prev, level)
		}
		prev = level
	}
}

func TestXPForNextLevel(t *testing.T) {
	cases := []struct {
		level int
		want  int64
	}{
		{0, 100},
		{1, 100},
		{2, 250},
		{24, 130000},
		{25, 150000},
		{26, 170000},
	}
	for _, tc := range cases {
		if got := XPForNextLevel(tc.level); got != tc.want {
			t.Errorf("XPForNextLevel(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}

	t.Run("ConsistentWithLevelForXP", func(t *testing.T) {
		for level := 1; level < 30; level++ {
			need := XPForNextLevel(level)
			if got := LevelForXP(need); got != level+1 {
				t.Errorf("LevelForXP(XPForNextLevel(%d)=%d) = %d, want %d", level, need, got, level+1)
			}
			if got := LevelForXP(need - 1); got > level {
				t.Errorf("LevelForXP(%d) = %d, want <= %d", need-1, got, level)
			}
		}
	})
}
