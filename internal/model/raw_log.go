package model

import "github.com/ethereum/go-ethereum/common"

// RawLog is a single log entry as returned by the remote log source.
// A nil topic marks an indexed slot the event did not use.
type RawLog struct {
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint64
	Address     common.Address
	Topics      []*common.Hash
	Data        []byte
	// Err is set when the source could not parse the entry. Decoding such
	// a log fails with Err.
	Err error
}

// Topic0 returns the first topic or the zero hash.
func (l RawLog) Topic0() common.Hash {
	if len(l.Topics) == 0 || l.Topics[0] == nil {
		return common.Hash{}
	}
	return *l.Topics[0]
}

// LogQuery selects the logs of one contract event starting at FromBlock.
// FromBlock is the subscription cursor and advances after every drained batch.
type LogQuery struct {
	Address   common.Address
	Topic0    common.Hash
	FromBlock uint64
	ToBlock   uint64
	ChainID   uint64
}

// Batch is one response of the remote log source.
type Batch struct {
	Logs          []RawLog
	ArchiveHeight uint64
	NextBlock     uint64
}

// CaughtUp reports whether the batch reached the source's known height.
func (b Batch) CaughtUp() bool {
	return b.NextBlock > b.ArchiveHeight
}
