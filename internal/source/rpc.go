package source

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"oraScope/internal/model"
)

// RPCClient captures the subset of chain.Client used by RPCSource.
type RPCClient interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// RPCSource serves log batches from a JSON-RPC node via eth_getLogs.
type RPCSource struct {
	client    RPCClient
	batchSize uint64
}

// NewRPCSource builds an RPCSource that fetches at most batchSize blocks per query.
func NewRPCSource(client RPCClient, batchSize uint64) (*RPCSource, error) {
	if client == nil {
		return nil, fmt.Errorf("rpc client is nil")
	}
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	return &RPCSource{client: client, batchSize: batchSize}, nil
}

// Height returns the latest block number.
func (s *RPCSource) Height(ctx context.Context) (uint64, error) {
	return s.client.LatestBlockNumber(ctx)
}

// Query fetches logs in [q.FromBlock, min(q.FromBlock+batchSize-1, head, q.ToBlock)].
func (s *RPCSource) Query(ctx context.Context, q model.LogQuery) (model.Batch, error) {
	head, err := s.client.LatestBlockNumber(ctx)
	if err != nil {
		return model.Batch{}, fmt.Errorf("get latest block: %w", err)
	}

	from := q.FromBlock
	if from > head || (q.ToBlock != 0 && from > q.ToBlock) {
		return model.Batch{ArchiveHeight: head, NextBlock: from}, nil
	}

	to := from + s.batchSize - 1
	if to > head {
		to = head
	}
	if q.ToBlock != 0 && to > q.ToBlock {
		to = q.ToBlock
	}

	logs, err := s.client.FilterLogs(ctx, from, to, []common.Address{q.Address}, []common.Hash{q.Topic0})
	if err != nil {
		return model.Batch{}, fmt.Errorf("filter logs %d-%d: %w", from, to, err)
	}

	raw := make([]model.RawLog, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		raw = append(raw, FromTypesLog(log))
	}

	return model.Batch{Logs: raw, ArchiveHeight: head, NextBlock: to + 1}, nil
}

// FromTypesLog converts a go-ethereum log into a RawLog.
func FromTypesLog(log types.Log) model.RawLog {
	topics := make([]*common.Hash, 0, len(log.Topics))
	for i := range log.Topics {
		topic := log.Topics[i]
		topics = append(topics, &topic)
	}
	return model.RawLog{
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		LogIndex:    uint64(log.Index),
		Address:     log.Address,
		Topics:      topics,
		Data:        log.Data,
	}
}
