package ora

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Field is one declared event parameter.
type Field struct {
	Name    string
	Type    string
	Indexed bool
}

// EventSchema is the ordered parameter list of one event.
type EventSchema struct {
	Name   string
	Topic0 common.Hash
	Fields []Field

	event abi.Event
}

// IndexedCount returns the number of parameters carried in topics.
func (s EventSchema) IndexedCount() int {
	n := 0
	for _, f := range s.Fields {
		if f.Indexed {
			n++
		}
	}
	return n
}

// Field returns the field with the given name.
func (s EventSchema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func newEventSchema(event abi.Event) EventSchema {
	fields := make([]Field, 0, len(event.Inputs))
	for _, input := range event.Inputs {
		fields = append(fields, Field{
			Name:    input.Name,
			Type:    input.Type.String(),
			Indexed: input.Indexed,
		})
	}
	return EventSchema{
		Name:   event.Name,
		Topic0: event.ID,
		Fields: fields,
		event:  event,
	}
}

// SchemaByTopic0 resolves the schema of the ORA event whose signature hash is topic0.
func SchemaByTopic0(topic0 common.Hash) (EventSchema, error) {
	oraABI, err := ABI()
	if err != nil {
		return EventSchema{}, fmt.Errorf("parse ora abi: %w", err)
	}
	for _, event := range oraABI.Events {
		if event.ID == topic0 {
			return newEventSchema(event), nil
		}
	}
	return EventSchema{}, fmt.Errorf("unsupported topic0: %s", topic0.Hex())
}

// SchemaByName resolves the schema of the named ORA event.
func SchemaByName(name string) (EventSchema, error) {
	oraABI, err := ABI()
	if err != nil {
		return EventSchema{}, fmt.Errorf("parse ora abi: %w", err)
	}
	event, ok := oraABI.Events[name]
	if !ok {
		return EventSchema{}, fmt.Errorf("unsupported event name: %s", name)
	}
	return newEventSchema(event), nil
}
