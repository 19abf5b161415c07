// Package errors: 게임화 엔진 전체에서 공용으로 사용되는 에러 타입들을 정의한다.
// 인프라(Redis/DB) 에러와 도메인(중복 지급, 중복 추첨 등) 에러를 구분한다.
package errors

import (
	"errors"
	"fmt"
)

// RedisError: Redis/Valkey 작업을 수행하는 도중 발생한 에러
type RedisError struct {
	Operation string
	Err       error
}

func (e RedisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("redis error operation=%s", e.Operation)
	}
	return fmt.Sprintf("redis error operation=%s: %v", e.Operation, e.Err)
}

func (e RedisError) Unwrap() error { return e.Err }

// DatabaseError: 데이터베이스(PostgreSQL 등) 작업을 수행하는 도중 발생한 에러
type DatabaseError struct {
	Operation string
	Err       error
}

func (e DatabaseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("db error operation=%s", e.Operation)
	}
	return fmt.Sprintf("db error operation=%s: %v", e.Operation, e.Err)
}

func (e DatabaseError) Unwrap() error { return e.Err }

// DuplicateAwardError: 이미 획득한 배지를 다시 지급하려 할 때 발생하는 에러.
// 동시 재전달(redelivery) 상황에서 정상적으로 발생할 수 있으며, 호출자는
// 에러가 아닌 성공(no-op)으로 처리해야 한다.
type DuplicateAwardError struct {
	PlayerID  string
	BadgeSlug string
}

func (e DuplicateAwardError) Error() string {
	return fmt.Sprintf("badge already awarded player=%s badge=%s", e.PlayerID, e.BadgeSlug)
}

// DrawConflictError: 이미 추첨이 완료된 기간에 대해 재추첨을 시도할 때 발생하는 에러.
// 기존 결과는 변경되지 않으며, 재실행은 거부된다.
type DrawConflictError struct {
	Period string
}

func (e DrawConflictError) Error() string {
	return fmt.Sprintf("lottery draw already exists period=%s", e.Period)
}

// MalformedEventError: 이벤트 페이로드가 손상되었거나 필수 필드가 없을 때 발생하는 에러.
// 해당 이벤트는 ack 후 버려지며, 스트림 처리를 중단시키지 않는다.
type MalformedEventError struct {
	EventID string
	Reason  string
}

func (e MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event id=%s: %s", e.EventID, e.Reason)
}

// UnknownEventTypeError: 인식할 수 없는 이벤트 타입일 때 발생하는 에러.
// 상위 호환성을 위해 치명적 에러로 취급하지 않는다.
type UnknownEventTypeError struct {
	EventID string
	Type    string
}

func (e UnknownEventTypeError) Error() string {
	return fmt.Sprintf("unknown event type id=%s type=%s", e.EventID, e.Type)
}

// InvariantViolationError: 데이터 불변식 위반(원장 합계와 캐시 불일치 등)을 나타내는 에러.
// 운영자 확인이 필요하며, 해당 작업은 부분 효과 없이 중단된다.
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violated %s: %s", e.Invariant, e.Detail)
}

// idempotencyCollisionTypes: 중복 처리 충돌로 분류되는 에러 타입들
// 낮은 심각도로 로깅만 하고 성공으로 취급한다.
var idempotencyCollisionTypes = []func() any{
	func() any { return new(DuplicateAwardError) },
	func() any { return new(DrawConflictError) },
}

// IsIdempotencyCollision: 에러가 중복 효과 충돌(배지 중복 지급, 중복 추첨)인지 확인한다.
// at-least-once 전달 아래에서 정상적으로 발생하는 충돌이다.
func IsIdempotencyCollision(err error) bool {
	if err == nil {
		return false
	}
	for _, targetFn := range idempotencyCollisionTypes {
		if errors.As(err, targetFn()) {
			return true
		}
	}
	return false
}

// IsBadInput: 에러가 잘못된 입력(손상/미지원 이벤트)인지 확인한다.
// 이런 이벤트는 ack 후 무시하며, 재전달해도 결과가 달라지지 않는다.
func IsBadInput(err error) bool {
	if err == nil {
		return false
	}
	var malformed MalformedEventError
	var unknown UnknownEventTypeError
	return errors.As(err, &malformed) || errors.As(err, &unknown)
}

// IsTransient: 에러가 일시적 인프라 장애(DB/Redis)인지 확인한다.
// 소비 계층에서 백오프 후 재시도해야 하며, ack 하지 않는다.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var redisErr RedisError
	var dbErr DatabaseError
	return errors.As(err, &redisErr) || errors.As(err, &dbErr)
}
