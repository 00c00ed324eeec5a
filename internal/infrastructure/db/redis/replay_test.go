package redis

import (
	"strings"
	"testing"
)

func TestKey_HashesToken(t *testing.T) {
	k := key("03AFcWeA-secret-token")

	if !strings.HasPrefix(k, "captcha:used:") {
		t.Fatalf("unexpected prefix: %s", k)
	}
	if strings.Contains(k, "secret-token") {
		t.Fatalf("raw token leaked into key: %s", k)
	}
	if len(k) != len("captcha:used:")+64 {
		t.Fatalf("unexpected key length %d", len(k))
	}
	if key("03AFcWeA-secret-token") != k {
		t.Fatalf("key must be deterministic")
	}
	if key("other") == k {
		t.Fatalf("different tokens must map to different keys")
	}
}
