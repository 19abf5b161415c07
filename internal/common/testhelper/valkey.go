// Package testhelper: 테스트 공용 헬퍼 (miniredis 기반 Valkey, in-memory DB)
package testhelper

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/valkey-io/valkey-go"
)

// NewMiniValkey: miniredis 서버와 그에 연결된 Valkey 클라이언트를 생성합니다.
// 정리는 t.Cleanup으로 자동 수행됩니다.
func NewMiniValkey(t *testing.T) (valkey.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{mr.Addr()},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		mr.Close()
		t.Fatalf("valkey client create failed: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}
