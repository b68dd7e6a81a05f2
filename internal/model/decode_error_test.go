package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDecodeErrorUnwrap(t *testing.T) {
	topic0 := common.HexToHash("0xa0faead83d70148ae18b694377f9bef079251342ab90e14af0f9ef68b891269f")
	cause := errors.New("short data")
	log := RawLog{
		TxHash:      common.HexToHash("0x01"),
		BlockNumber: 20614966,
		LogIndex:    3,
		Topics:      []*common.Hash{&topic0},
	}

	err := fmt.Errorf("process: %w", NewDecodeError(log, cause))

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError in chain")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if decodeErr.Topic0 != topic0.Hex() || decodeErr.BlockNumber != 20614966 || decodeErr.LogIndex != 3 {
		t.Fatalf("unexpected fields: %+v", decodeErr)
	}
}

func TestBatchCaughtUp(t *testing.T) {
	if (Batch{NextBlock: 20614970, ArchiveHeight: 20614970}).CaughtUp() {
		t.Fatalf("next block equal to archive height is not caught up")
	}
	if !(Batch{NextBlock: 20614971, ArchiveHeight: 20614970}).CaughtUp() {
		t.Fatalf("next block past archive height must be caught up")
	}
}

func TestRawLogTopic0(t *testing.T) {
	if (RawLog{}).Topic0() != (common.Hash{}) {
		t.Fatalf("empty topics should yield zero hash")
	}
	if (RawLog{Topics: []*common.Hash{nil}}).Topic0() != (common.Hash{}) {
		t.Fatalf("absent topic0 should yield zero hash")
	}
}
