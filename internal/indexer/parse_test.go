package indexer

import "testing"

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(" 0x1111111111111111111111111111111111111111 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr.Hex() != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("unexpected address %s", addr.Hex())
	}
	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestParseTxHash(t *testing.T) {
	const hash = "0x0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a0b0a"
	got, err := ParseTxHash(hash)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Hex() != hash {
		t.Fatalf("unexpected hash %s", got.Hex())
	}
	for _, bad := range []string{"", "0xzz", "0x1234", "0b0a"} {
		if _, err := ParseTxHash(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
