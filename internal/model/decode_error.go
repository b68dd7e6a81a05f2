package model

import "fmt"

// DecodeError records a decode failure for a single log.
type DecodeError struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Err         error  `json:"-"`
}

// NewDecodeError wraps err with the identifying fields of log.
func NewDecodeError(log RawLog, err error) *DecodeError {
	return &DecodeError{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    log.LogIndex,
		Address:     log.Address.Hex(),
		Topic0:      log.Topic0().Hex(),
		Err:         err,
	}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode log %s#%d (block %d): %v", e.TxHash, e.LogIndex, e.BlockNumber, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
