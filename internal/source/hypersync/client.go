package hypersync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"oraScope/internal/chain"
	"oraScope/internal/model"
)

const defaultTimeout = 30 * time.Second

var logFields = []string{
	"block_number",
	"log_index",
	"transaction_hash",
	"address",
	"data",
	"topic0",
	"topic1",
	"topic2",
	"topic3",
}

// Client queries an Envio HyperSync endpoint over its JSON API.
type Client struct {
	url   string
	token string
	http  *http.Client
}

// NewClient builds a HyperSync client. token may be empty.
func NewClient(url, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:   strings.TrimRight(url, "/"),
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

type queryRequest struct {
	FromBlock      uint64         `json:"from_block"`
	ToBlock        *uint64        `json:"to_block,omitempty"`
	Logs           []logSelection `json:"logs"`
	FieldSelection fieldSelection `json:"field_selection"`
}

type logSelection struct {
	Address []string   `json:"address"`
	Topics  [][]string `json:"topics"`
}

type fieldSelection struct {
	Log []string `json:"log"`
}

type queryResponse struct {
	Data          responseData `json:"data"`
	ArchiveHeight *uint64      `json:"archive_height"`
	NextBlock     uint64       `json:"next_block"`
}

type responseBatch struct {
	Logs []logEntry `json:"logs"`
}

// responseData accepts both a list of batches and a single batch object.
type responseData []responseBatch

func (d *responseData) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}
	if trimmed[0] == '{' {
		var single responseBatch
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*d = responseData{single}
		return nil
	}
	var many []responseBatch
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*d = many
	return nil
}

type logEntry struct {
	BlockNumber     uint64  `json:"block_number"`
	LogIndex        uint64  `json:"log_index"`
	TransactionHash string  `json:"transaction_hash"`
	Address         string  `json:"address"`
	Data            string  `json:"data"`
	Topic0          *string `json:"topic0"`
	Topic1          *string `json:"topic1"`
	Topic2          *string `json:"topic2"`
	Topic3          *string `json:"topic3"`
}

type heightResponse struct {
	Height uint64 `json:"height"`
}

// Query fetches every log matching q from q.FromBlock up to what the server has available.
func (c *Client) Query(ctx context.Context, q model.LogQuery) (model.Batch, error) {
	req := queryRequest{
		FromBlock: q.FromBlock,
		Logs: []logSelection{{
			Address: []string{q.Address.Hex()},
			Topics:  [][]string{{q.Topic0.Hex()}},
		}},
		FieldSelection: fieldSelection{Log: logFields},
	}
	if q.ToBlock != 0 {
		// to_block is exclusive upstream
		to := q.ToBlock + 1
		req.ToBlock = &to
	}

	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/query", req, &resp, "hypersync_query"); err != nil {
		return model.Batch{}, err
	}

	batch := model.Batch{NextBlock: resp.NextBlock}
	if resp.ArchiveHeight != nil {
		batch.ArchiveHeight = *resp.ArchiveHeight
	}
	for _, data := range resp.Data {
		for _, entry := range data.Logs {
			batch.Logs = append(batch.Logs, entry.rawLog())
		}
	}
	return batch, nil
}

// Height returns the archive height of the server.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	var resp heightResponse
	if err := c.do(ctx, http.MethodGet, "/height", nil, &resp, "hypersync_height"); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

// Ping checks that the endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Height(ctx)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, query string) (err error) {
	defer chain.ObserveDuration(c.url, query)()
	defer func() { chain.ObserveError(c.url, query, err) }()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// rawLog converts an entry. A malformed entry still yields a RawLog, with
// Err set, so only that log is rejected downstream.
func (e logEntry) rawLog() model.RawLog {
	log := model.RawLog{
		TxHash:      common.HexToHash(e.TransactionHash),
		BlockNumber: e.BlockNumber,
		LogIndex:    e.LogIndex,
		Address:     common.HexToAddress(e.Address),
		Topics:      make([]*common.Hash, 0, 4),
	}

	data, err := hexutil.Decode(normalizeHex(e.Data))
	if err != nil {
		log.Err = fmt.Errorf("invalid data: %w", err)
	} else {
		log.Data = data
	}

	for _, topic := range []*string{e.Topic0, e.Topic1, e.Topic2, e.Topic3} {
		if topic == nil || *topic == "" {
			log.Topics = append(log.Topics, nil)
			continue
		}
		raw, err := hexutil.Decode(*topic)
		if err != nil || len(raw) != common.HashLength {
			if log.Err == nil {
				log.Err = fmt.Errorf("invalid topic %q", *topic)
			}
			log.Topics = append(log.Topics, nil)
			continue
		}
		hash := common.BytesToHash(raw)
		log.Topics = append(log.Topics, &hash)
	}

	return log
}

func normalizeHex(s string) string {
	if s == "" {
		return "0x"
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "0x" + s
	}
	return s
}
