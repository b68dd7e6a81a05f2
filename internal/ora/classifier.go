package ora

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"oraScope/internal/model"
)

// Mapping names the event fields that populate an IngestRecord and the table it lands in.
type Mapping struct {
	Table     string
	RequestID string
	User      string
	Text      string
}

// Classifier maps decoded events to their persistence mapping.
type Classifier struct {
	mappings map[string]Mapping
}

// NewClassifier returns a classifier for prompt requests and callback results.
func NewClassifier() *Classifier {
	return &Classifier{
		mappings: map[string]Mapping{
			EventPromptRequest: {
				Table:     model.TablePromptRequests,
				RequestID: "requestId",
				User:      "sender",
				Text:      "prompt",
			},
			EventAICallbackResult: {
				Table:     model.TablePromptAnswers,
				RequestID: "requestID",
				User:      "address",
				Text:      "output",
			},
		},
	}
}

// Classify returns the mapping for event, or false when the event is not persisted.
func (c *Classifier) Classify(event model.DecodedEvent) (Mapping, bool) {
	mapping, ok := c.mappings[event.Name]
	return mapping, ok
}

// Record builds the IngestRecord for a classified event.
func (m Mapping) Record(event model.DecodedEvent, log model.RawLog, chainID uint64, timestamp uint64) (model.IngestRecord, error) {
	reqID, err := m.requestID(event)
	if err != nil {
		return model.IngestRecord{}, err
	}
	user, err := m.user(event)
	if err != nil {
		return model.IngestRecord{}, err
	}
	text, err := m.text(event)
	if err != nil {
		return model.IngestRecord{}, err
	}

	return model.IngestRecord{
		TxID:        log.TxHash.Hex(),
		RequestID:   reqID,
		ChainID:     chainID,
		UserAddress: user,
		Text:        text,
		BlockNumber: log.BlockNumber,
		Timestamp:   timestamp,
	}, nil
}

func (m Mapping) requestID(event model.DecodedEvent) (string, error) {
	arg, ok := event.Arg(m.RequestID)
	if !ok {
		return "", fmt.Errorf("%s: missing field %s", event.Name, m.RequestID)
	}
	value, ok := arg.Value.(*big.Int)
	if !ok || value == nil {
		return "", fmt.Errorf("%s: field %s is %T, want *big.Int", event.Name, m.RequestID, arg.Value)
	}
	return value.String(), nil
}

func (m Mapping) user(event model.DecodedEvent) (string, error) {
	arg, ok := event.Arg(m.User)
	if !ok {
		return "", fmt.Errorf("%s: missing field %s", event.Name, m.User)
	}
	value, ok := arg.Value.(common.Address)
	if !ok {
		return "", fmt.Errorf("%s: field %s is %T, want address", event.Name, m.User, arg.Value)
	}
	return value.Hex(), nil
}

func (m Mapping) text(event model.DecodedEvent) (string, error) {
	arg, ok := event.Arg(m.Text)
	if !ok {
		return "", fmt.Errorf("%s: missing field %s", event.Name, m.Text)
	}
	value, ok := arg.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s: field %s is %T, want string", event.Name, m.Text, arg.Value)
	}
	return value, nil
}
