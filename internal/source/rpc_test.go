package source

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"oraScope/internal/model"
)

type filterCall struct {
	from, to  uint64
	addresses []common.Address
	topic0    []common.Hash
}

type fakeRPC struct {
	head    uint64
	headErr error
	logs    []types.Log
	calls   []filterCall
}

func (f *fakeRPC) LatestBlockNumber(context.Context) (uint64, error) {
	return f.head, f.headErr
}

func (f *fakeRPC) FilterLogs(_ context.Context, from, to uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	f.calls = append(f.calls, filterCall{from: from, to: to, addresses: addresses, topic0: topic0})
	return f.logs, nil
}

func TestRPCSourceQueryClampsRange(t *testing.T) {
	t.Parallel()

	address := common.HexToAddress("0x61423153f111BCFB28dd264aBA8d9b5C452228D2")
	topic0 := common.HexToHash("0xa0faead83d70148ae18b694377f9bef079251342ab90e14af0f9ef68b891269f")
	rpc := &fakeRPC{
		head: 20614999,
		logs: []types.Log{
			{BlockNumber: 20614966, TxHash: common.HexToHash("0x01"), Topics: []common.Hash{topic0}, Index: 4},
			{BlockNumber: 20614967, TxHash: common.HexToHash("0x02"), Topics: []common.Hash{topic0}, Removed: true},
		},
	}
	src, err := NewRPCSource(rpc, 10)
	require.NoError(t, err)

	batch, err := src.Query(context.Background(), model.LogQuery{Address: address, Topic0: topic0, FromBlock: 20614965})
	require.NoError(t, err)
	require.Equal(t, uint64(20614975), batch.NextBlock)
	require.Equal(t, uint64(20614999), batch.ArchiveHeight)
	require.Len(t, batch.Logs, 1)
	require.Equal(t, uint64(4), batch.Logs[0].LogIndex)
	require.Equal(t, topic0, batch.Logs[0].Topic0())

	require.Len(t, rpc.calls, 1)
	require.Equal(t, uint64(20614965), rpc.calls[0].from)
	require.Equal(t, uint64(20614974), rpc.calls[0].to)
	require.Equal(t, []common.Address{address}, rpc.calls[0].addresses)
	require.Equal(t, []common.Hash{topic0}, rpc.calls[0].topic0)

	batch, err = src.Query(context.Background(), model.LogQuery{FromBlock: 20614995})
	require.NoError(t, err)
	require.Equal(t, uint64(20615000), batch.NextBlock)
	require.True(t, batch.CaughtUp())

	batch, err = src.Query(context.Background(), model.LogQuery{FromBlock: 20614990, ToBlock: 20614992})
	require.NoError(t, err)
	require.Equal(t, uint64(20614993), batch.NextBlock)
}

func TestRPCSourceQueryAheadOfHead(t *testing.T) {
	t.Parallel()

	rpc := &fakeRPC{head: 100}
	src, err := NewRPCSource(rpc, 10)
	require.NoError(t, err)

	batch, err := src.Query(context.Background(), model.LogQuery{FromBlock: 101})
	require.NoError(t, err)
	require.Empty(t, batch.Logs)
	require.Equal(t, uint64(101), batch.NextBlock)
	require.True(t, batch.CaughtUp())
	require.Empty(t, rpc.calls)
}

func TestRPCSourceQueryHeadError(t *testing.T) {
	t.Parallel()

	rpc := &fakeRPC{headErr: errors.New("connection refused")}
	src, err := NewRPCSource(rpc, 10)
	require.NoError(t, err)

	_, err = src.Query(context.Background(), model.LogQuery{FromBlock: 1})
	require.Error(t, err)

	_, err = NewRPCSource(rpc, 0)
	require.Error(t, err)
}
