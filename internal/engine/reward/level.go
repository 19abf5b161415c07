package reward

// levelThresholds[i] = 레벨 i+1 에 필요한 누적 XP. 단조 증가여야 한다.
var levelThresholds = []int64{
	0,      // 1
	100,    // 2
	250,    // 3
	500,    // 4
	1000,   // 5
	1750,   // 6
	2750,   // 7
	4000,   // 8
	5500,   // 9
	7500,   // 10
	10000,  // 11
	13000,  // 12
	16500,  // 13
	20500,  // 14
	25000,  // 15
	30000,  // 16
	36000,  // 17
	43000,  // 18
	51000,  // 19
	60000,  // 20
	70000,  // 21
	82000,  // 22
	96000,  // 23
	112000, // 24
	130000, // 25
}

// levelStepBeyondTable: 테이블 마지막 레벨 이후 레벨당 추가 XP.
const levelStepBeyondTable int64 = 20000

// LevelForXP: 누적 XP 의 순수 함수로 레벨을 계산한다. 음수 XP 는 레벨 1.
func LevelForXP(totalXP int64) int {
	if totalXP < 0 {
		return 1
	}

	level := 1
	for i, threshold := range levelThresholds {
		if totalXP < threshold {
			break
		}
		level = i + 1
	}

	if level == len(levelThresholds) {
		extra := totalXP - levelThresholds[len(levelThresholds)-1]
		level += int(extra / levelStepBeyondTable)
	}
	return level
}

// XPForNextLevel: 다음 레벨 진입에 필요한 누적 XP.
func XPForNextLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	if level < len(levelThresholds) {
		return levelThresholds[level]
	}
	last := levelThresholds[len(levelThresholds)-1]
	return last + int64(level-len(levelThresholds)+1)*levelStepBeyondTable
}
