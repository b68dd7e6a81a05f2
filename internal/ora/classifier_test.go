package ora

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"oraScope/internal/model"
)

func TestClassifierPromptRequest(t *testing.T) {
	t.Parallel()

	decoder, err := NewDecoder(promptRequestTopic)
	require.NoError(t, err)

	sender := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log := buildPromptLog(t, big.NewInt(77), sender, big.NewInt(11), "Tell me a joke")
	event, err := decoder.Decode(log)
	require.NoError(t, err)

	mapping, ok := NewClassifier().Classify(event)
	require.True(t, ok)
	require.Equal(t, model.TablePromptRequests, mapping.Table)

	record, err := mapping.Record(event, log, 0, 1725000000)
	require.NoError(t, err)
	require.Equal(t, model.IngestRecord{
		TxID:        log.TxHash.Hex(),
		RequestID:   "77",
		ChainID:     0,
		UserAddress: sender.Hex(),
		Text:        "Tell me a joke",
		BlockNumber: log.BlockNumber,
		Timestamp:   1725000000,
	}, record)
}

func TestClassifierAICallbackResult(t *testing.T) {
	t.Parallel()

	decoder, err := NewDecoder(aiCallbackResultTopic)
	require.NoError(t, err)

	contract := common.HexToAddress("0x1111111111111111111111111111111111111111")
	invoker := common.HexToAddress("0x2222222222222222222222222222222222222222")
	log := buildCallbackLog(t, contract, big.NewInt(77), invoker, []byte("Why did the chicken..."))
	event, err := decoder.Decode(log)
	require.NoError(t, err)

	mapping, ok := NewClassifier().Classify(event)
	require.True(t, ok)
	require.Equal(t, model.TablePromptAnswers, mapping.Table)

	record, err := mapping.Record(event, log, 0, 1725000012)
	require.NoError(t, err)
	require.Equal(t, "77", record.RequestID)
	require.Equal(t, contract.Hex(), record.UserAddress)
	require.Equal(t, "Why did the chicken...", record.Text)
	require.Equal(t, uint64(1725000012), record.Timestamp)
}

func TestClassifierDropsUnknownEvents(t *testing.T) {
	t.Parallel()

	_, ok := NewClassifier().Classify(model.DecodedEvent{Name: "Transfer"})
	require.False(t, ok)
}

func TestMappingRecordRejectsWrongTypes(t *testing.T) {
	t.Parallel()

	mapping, ok := NewClassifier().Classify(model.DecodedEvent{Name: EventPromptRequest})
	require.True(t, ok)

	event := model.DecodedEvent{
		Name: EventPromptRequest,
		Args: []model.Arg{
			{Name: "requestId", Type: "uint256", Value: "not a number"},
			{Name: "sender", Type: "address", Value: common.Address{}},
			{Name: "prompt", Type: "string", Value: "x"},
		},
	}
	_, err := mapping.Record(event, model.RawLog{}, 0, 0)
	require.Error(t, err)

	event.Args = event.Args[1:]
	_, err = mapping.Record(event, model.RawLog{}, 0, 0)
	require.Error(t, err)
}
