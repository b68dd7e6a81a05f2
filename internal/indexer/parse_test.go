package indexer

import "testing"

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(" 0x61423153f111BCFB28dd264aBA8d9b5C452228D2 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr.Hex() != "0x61423153f111BCFB28dd264aBA8d9b5C452228D2" {
		t.Fatalf("unexpected address %s", addr.Hex())
	}
	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestParseTopic0(t *testing.T) {
	const sig = "0xa0faead83d70148ae18b694377f9bef079251342ab90e14af0f9ef68b891269f"
	topic, err := ParseTopic0(sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic.Hex() != sig {
		t.Fatalf("unexpected topic %s", topic.Hex())
	}
	if _, err := ParseTopic0("0xabcd"); err == nil {
		t.Fatalf("expected length error")
	}
	if _, err := ParseTopic0("nothex"); err == nil {
		t.Fatalf("expected decode error")
	}
}
