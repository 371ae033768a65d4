package cache

import (
	"testing"
)

func TestGraphSignature(t *testing.T) {
	t.Run("same graph produces same signature", func(t *testing.T) {
		edges := []EdgeDigest{
			{From: 1, To: 2, Length: 100},
			{From: 2, To: 3, Length: 50},
		}

		sig1 := GraphSignature("undirected", edges)
		sig2 := GraphSignature("undirected", edges)

		if sig1 != sig2 {
			t.Errorf("same graph should produce same signature: %v != %v", sig1, sig2)
		}
	})

	t.Run("different lengths produce different signatures", func(t *testing.T) {
		e1 := []EdgeDigest{{From: 1, To: 2, Length: 100}}
		e2 := []EdgeDigest{{From: 1, To: 2, Length: 200}}

		if GraphSignature("undirected", e1) == GraphSignature("undirected", e2) {
			t.Error("different graphs should produce different signatures")
		}
	})

	t.Run("edge order does not affect signature", func(t *testing.T) {
		e1 := []EdgeDigest{
			{From: 1, To: 2, Length: 100},
			{From: 2, To: 3, Length: 50},
		}
		e2 := []EdgeDigest{
			{From: 2, To: 3, Length: 50},
			{From: 1, To: 2, Length: 100},
		}

		if GraphSignature("undirected", e1) != GraphSignature("undirected", e2) {
			t.Error("edge order should not affect signature")
		}
	})

	t.Run("mode affects signature", func(t *testing.T) {
		edges := []EdgeDigest{{From: 1, To: 2, Length: 100}}

		if GraphSignature("undirected", edges) == GraphSignature("directed", edges) {
			t.Error("mode should affect signature")
		}
	})

	t.Run("empty graph", func(t *testing.T) {
		sig := GraphSignature("undirected", nil)
		if sig == "" {
			t.Error("empty graph should still produce a signature")
		}
	})
}

func TestBuildPathKey(t *testing.T) {
	key := BuildPathKey("abc123", 5, 9)
	expected := "path:abc123:5:9"
	if key != expected {
		t.Errorf("BuildPathKey() = %v, want %v", key, expected)
	}

	// Направление пары различимо в ключе
	reverse := BuildPathKey("abc123", 9, 5)
	if key == reverse {
		t.Error("keys for (a,b) and (b,a) must differ")
	}
}

func TestQuickHash(t *testing.T) {
	h1 := QuickHash([]byte("data"))
	h2 := QuickHash([]byte("data"))
	h3 := QuickHash([]byte("other"))

	if h1 != h2 {
		t.Error("same data should produce same hash")
	}
	if h1 == h3 {
		t.Error("different data should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("QuickHash length = %d, want 64", len(h1))
	}
}

func TestShortHash(t *testing.T) {
	h := ShortHash([]byte("data"))
	if len(h) != 16 {
		t.Errorf("ShortHash length = %d, want 16", len(h))
	}
}
