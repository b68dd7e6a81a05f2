package model

// IngestRecord is the row persisted for a prompt request or answer.
// TxID is the dedup key: a stored record is never overwritten.
type IngestRecord struct {
	TxID        string `json:"tx_id"`
	RequestID   string `json:"req_id"`
	ChainID     uint64 `json:"chain_id"`
	UserAddress string `json:"user_address"`
	Text        string `json:"text"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
}

// Tables that hold IngestRecords.
const (
	TablePromptRequests = "prompt_requests"
	TablePromptAnswers  = "prompt_answers"
)

// RecordTables lists every table an IngestRecord can be written to.
var RecordTables = []string{TablePromptRequests, TablePromptAnswers}
