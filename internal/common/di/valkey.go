package di

import "github.com/valkey-io/valkey-go"

// DataValkeyClient 는 동일 타입(valkey.Client) 중복 주입 충돌을 피하기 위한 DI wrapper 타입이다.
// 스냅샷 캐시용 클라이언트와 이벤트 스트림용 클라이언트를 분리된 타입으로 취급한다.
type DataValkeyClient struct{ valkey.Client }

// MQValkeyClient 는 이벤트 스트림(MQ)용 Valkey 클라이언트 DI wrapper 타입이다.
type MQValkeyClient struct{ valkey.Client }
