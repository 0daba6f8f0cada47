package util

import "testing"

func TestHashSessionKey(t *testing.T) {
	key := "session:tab-1"
	got := HashSessionKey(key)
	if got != HashSessionKey(key) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestHashSessionKeySeparatesSessions(t *testing.T) {
	keys := []string{"session:tab-1", "session:tab-2", "ip:203.0.113.7", "tab-1"}
	seen := make(map[string]string, len(keys))
	for _, k := range keys {
		h := HashSessionKey(k)
		if prev, ok := seen[h]; ok {
			t.Fatalf("%q and %q share hash %s", prev, k, h)
		}
		seen[h] = k
	}
}
