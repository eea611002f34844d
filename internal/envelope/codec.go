package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformed is returned for frames that are not valid envelopes.
	ErrMalformed = errors.New("envelope: malformed payload")
	// ErrMissingType is returned for JSON objects without a "type" field.
	ErrMissingType = errors.New("envelope: missing type")
)

// validate is shared so struct metadata is cached across decodes.
var validate = validator.New()

// Decode parses one inbound frame. Malformed frames yield an error wrapping
// ErrMalformed; frames with an unrecognized tag decode to Unknown.
func Decode(data []byte) (Envelope, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, ErrMissingType)
	}

	switch head.Type {
	case TypeMessage:
		return decodeAs[Message](data)
	case TypeHistory:
		return decodeAs[History](data)
	case TypeTyping:
		return decodeAs[Typing](data)
	case TypeOnlineUsers:
		return decodeAs[OnlineUsers](data)
	case TypeSystem:
		return decodeAs[System](data)
	case TypeError:
		return decodeAs[Error](data)
	case TypeRead:
		return decodeAs[ReadAck](data)
	case TypeReadReceipt:
		return decodeAs[ReadReceipt](data)
	case TypePing:
		return Ping{}, nil
	case TypePong:
		return Pong{}, nil
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unknown{Tag: head.Type, Raw: raw}, nil
	}
}

func decodeAs[T Envelope](data []byte) (Envelope, error) {
	var env T
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type(), err)
	}
	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type(), err)
	}
	return env, nil
}

// Encode renders an envelope as a JSON object with its "type" tag first.
func Encode(env Envelope) ([]byte, error) {
	if u, ok := env.(Unknown); ok {
		return u.Raw, nil
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Type(), err)
	}
	tag, err := json.Marshal(env.Type())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Type(), err)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 9)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}
