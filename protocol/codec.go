package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec errors.
var (
	ErrMissingType    = errors.New("message has no type")
	ErrEmptyPayload   = errors.New("message has no payload")
	ErrUnknownCodec   = errors.New("unknown codec")
	ErrMalformedFrame = errors.New("malformed frame")
)

// Codec names.
const (
	CodecJSON    = "json"
	CodecMsgPack = "msgpack"
)

// Codec puts events on the wire. Every frame is an envelope of the event
// type and its payload.
type Codec interface {
	Name() string
	// Binary reports whether frames must be sent as binary messages.
	Binary() bool
	Encode(eventType string, payload any) ([]byte, error)
	Decode(data []byte) (Message, error)
}

// Message is a decoded envelope whose payload is bound lazily.
type Message struct {
	Type    string
	payload []byte
	bind    func([]byte, any) error
}

// Decode binds the payload into v.
func (m Message) Decode(v any) error {
	if len(m.payload) == 0 || m.bind == nil {
		return fmt.Errorf("%s: %w", m.Type, ErrEmptyPayload)
	}
	if err := m.bind(m.payload, v); err != nil {
		return fmt.Errorf("%s: %w: %v", m.Type, ErrMalformedFrame, err)
	}
	return nil
}

// NewMessage builds an in-process message, as if it had been received as JSON.
func NewMessage(eventType string, payload any) (Message, error) {
	data, err := JSON{}.Encode(eventType, payload)
	if err != nil {
		return Message{}, err
	}
	return JSON{}.Decode(data)
}

// CodecByName resolves a codec from its name. The empty name selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSON{}, nil
	case CodecMsgPack:
		return MsgPack{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

type jsonEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JSON encodes envelopes as text frames, the browser default.
type JSON struct{}

func (JSON) Name() string { return CodecJSON }

func (JSON) Binary() bool { return false }

func (JSON) Encode(eventType string, payload any) ([]byte, error) {
	if eventType == "" {
		return nil, ErrMissingType
	}
	env := jsonEnvelope{Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", eventType, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

func (JSON) Decode(data []byte) (Message, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return Message{}, ErrMissingType
	}

	msg := Message{Type: env.Type, bind: json.Unmarshal}
	if len(env.Payload) > 0 && !bytes.Equal(env.Payload, []byte("null")) {
		msg.payload = env.Payload
	}
	return msg, nil
}

type msgpackEnvelope struct {
	Type    string             `json:"type"`
	Payload msgpack.RawMessage `json:"payload"`
}

// MsgPack encodes envelopes as binary MessagePack frames. Field names follow
// the json tags so both codecs carry the same keys.
type MsgPack struct{}

func (MsgPack) Name() string { return CodecMsgPack }

func (MsgPack) Binary() bool { return true }

func (MsgPack) Encode(eventType string, payload any) ([]byte, error) {
	if eventType == "" {
		return nil, ErrMissingType
	}

	env := msgpackEnvelope{Type: eventType}
	if payload != nil {
		raw, err := msgpackMarshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", eventType, err)
		}
		env.Payload = raw
	}
	return msgpackMarshal(env)
}

func (MsgPack) Decode(data []byte) (Message, error) {
	var env msgpackEnvelope
	if err := msgpackUnmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return Message{}, ErrMissingType
	}

	msg := Message{Type: env.Type, bind: msgpackUnmarshal}
	if len(env.Payload) > 0 && !bytes.Equal(env.Payload, []byte{msgpackNil}) {
		msg.payload = env.Payload
	}
	return msg, nil
}

const msgpackNil = 0xc0

func msgpackMarshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func msgpackUnmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
