package model

// Cursor is the durable progress of one subscription.
type Cursor struct {
	ChainID            uint64 `json:"chain_id"`
	Subscription       string `json:"subscription"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}
