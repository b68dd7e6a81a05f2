package ora

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"oraScope/internal/model"
)

var (
	errMissingTopic0  = errors.New("missing topic0")
	errAbsentTopic    = errors.New("absent topic before a present one")
	errTopic0Mismatch = errors.New("topic0 does not match event signature")
)

// Decoder decodes logs of a single ORA event.
type Decoder struct {
	schema EventSchema
}

// NewDecoder builds a decoder bound to the event whose signature hash is topic0.
func NewDecoder(topic0 common.Hash) (*Decoder, error) {
	schema, err := SchemaByTopic0(topic0)
	if err != nil {
		return nil, err
	}
	return &Decoder{schema: schema}, nil
}

// Schema returns the bound event schema.
func (d *Decoder) Schema() EventSchema {
	return d.schema
}

// Decode converts a raw log into a DecodedEvent. Failures are *model.DecodeError.
func (d *Decoder) Decode(log model.RawLog) (model.DecodedEvent, error) {
	event, err := d.decode(log)
	if err != nil {
		return model.DecodedEvent{}, model.NewDecodeError(log, err)
	}
	return event, nil
}

func (d *Decoder) decode(log model.RawLog) (model.DecodedEvent, error) {
	if log.Err != nil {
		return model.DecodedEvent{}, log.Err
	}
	topics, err := trimTopics(log.Topics)
	if err != nil {
		return model.DecodedEvent{}, err
	}
	if topics[0] != d.schema.Topic0 {
		return model.DecodedEvent{}, fmt.Errorf("%w: got %s, want %s", errTopic0Mismatch, topics[0].Hex(), d.schema.Topic0.Hex())
	}

	event := d.schema.event
	indexed := indexedArguments(event.Inputs)
	if len(topics) != len(indexed)+1 {
		return model.DecodedEvent{}, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(topics))
	}

	values := make(map[string]interface{}, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(values, indexed, topics[1:]); err != nil {
		return model.DecodedEvent{}, fmt.Errorf("parse topics: %w", err)
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return model.DecodedEvent{}, fmt.Errorf("unpack %s: %w", event.Name, err)
	}

	args := make([]model.Arg, 0, len(d.schema.Fields))
	for _, field := range d.schema.Fields {
		value, ok := values[field.Name]
		if !ok {
			return model.DecodedEvent{}, fmt.Errorf("missing value for %s", field.Name)
		}
		if d.schema.Name == EventAICallbackResult && field.Name == "output" {
			text, err := outputText(value)
			if err != nil {
				return model.DecodedEvent{}, err
			}
			value = text
		}
		args = append(args, model.Arg{Name: field.Name, Type: field.Type, Value: value})
	}

	return model.DecodedEvent{Name: d.schema.Name, Args: args}, nil
}

// trimTopics drops trailing absent topics. An absent topic followed by a present one is malformed.
func trimTopics(topics []*common.Hash) ([]common.Hash, error) {
	end := len(topics)
	for end > 0 && topics[end-1] == nil {
		end--
	}
	if end == 0 {
		return nil, errMissingTopic0
	}

	out := make([]common.Hash, 0, end)
	for i := 0; i < end; i++ {
		if topics[i] == nil {
			return nil, fmt.Errorf("%w: index %d", errAbsentTopic, i)
		}
		out = append(out, *topics[i])
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
