package model

import (
	"fmt"
	"time"
)

// LeaderboardPeriod 리더보드 집계 기간.
type LeaderboardPeriod string

// PeriodWeekly 는 리더보드 기간 상수 목록이다.
const (
	PeriodWeekly  LeaderboardPeriod = "weekly"
	PeriodMonthly LeaderboardPeriod = "monthly"
	PeriodAllTime LeaderboardPeriod = "alltime"
	PeriodRegion  LeaderboardPeriod = "region"
)

// AllLeaderboardPeriods: 스케줄러가 갱신하는 기간 목록
var AllLeaderboardPeriods = []LeaderboardPeriod{
	PeriodWeekly,
	PeriodMonthly,
	PeriodAllTime,
	PeriodRegion,
}

// WeekStart: 주어진 시각이 속한 ISO 주의 시작(월요일 00:00 UTC)을 반환한다.
// 주 경계는 엔진이 플레이어에게 노출하는 유일한 마감 시각이므로 로케일에 의존하지 않는다.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	// time.Weekday는 일요일=0이므로 월요일 기준으로 보정
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// WeekKey: ISO 주차 기간 키를 반환한다. 형식: "2026-W35"
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey: 월 기간 키를 반환한다. 형식: "2026-08"
func MonthKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// MonthStart: 주어진 시각이 속한 달의 시작(1일 00:00 UTC)을 반환한다.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PrevWeekKey: 직전 ISO 주의 기간 키를 반환한다. 복권 추첨은 닫힌 주에 대해서만 수행된다.
func PrevWeekKey(t time.Time) string {
	return WeekKey(WeekStart(t).AddDate(0, 0, -7))
}
