package transport

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Supported codecs.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
	CodecCBOR    = "cbor"
	CodecYAML    = "yaml"
)

// Serializer marshals messages with one codec.
type Serializer struct {
	codecType string
}

// NewSerializer returns a serializer for codecType.
func NewSerializer(codecType string) (*Serializer, error) {
	switch codecType {
	case CodecJSON, CodecMsgpack, CodecCBOR, CodecYAML:
		return &Serializer{codecType: codecType}, nil
	default:
		return nil, &SerializerError{
			Operation: "create",
			CodecType: codecType,
			Err:       fmt.Errorf("%w: %s", ErrUnsupportedCodec, codecType),
		}
	}
}

// CodecType returns the codec name.
func (s *Serializer) CodecType() string {
	return s.codecType
}

// Marshal encodes msg.
func (s *Serializer) Marshal(msg any) ([]byte, error) {
	var data []byte
	var err error

	switch s.codecType {
	case CodecJSON:
		data, err = json.Marshal(msg)
	case CodecMsgpack:
		data, err = msgpack.Marshal(msg)
	case CodecCBOR:
		data, err = cbor.Marshal(msg)
	case CodecYAML:
		data, err = yaml.Marshal(msg)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedCodec, s.codecType)
	}

	if err != nil {
		return nil, &SerializerError{Operation: "marshal", CodecType: s.codecType, Err: err}
	}
	return data, nil
}

// Unmarshal decodes data into msg.
func (s *Serializer) Unmarshal(data []byte, msg any) error {
	var err error

	switch s.codecType {
	case CodecJSON:
		err = json.Unmarshal(data, msg)
	case CodecMsgpack:
		err = msgpack.Unmarshal(data, msg)
	case CodecCBOR:
		err = cbor.Unmarshal(data, msg)
	case CodecYAML:
		err = yaml.Unmarshal(data, msg)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedCodec, s.codecType)
	}

	if err != nil {
		return &SerializerError{Operation: "unmarshal", CodecType: s.codecType, Err: err}
	}
	return nil
}

// MarshalEnvelope encodes msg as the payload of an envelope and encodes
// the envelope.
func (s *Serializer) MarshalEnvelope(sessionID string, phase Phase, from, to PartyID, msg any) ([]byte, error) {
	payload, err := s.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return s.Marshal(NewEnvelope(sessionID, phase, from, to, payload))
}

// UnmarshalEnvelope decodes an envelope. The payload is left encoded.
func (s *Serializer) UnmarshalEnvelope(data []byte, env *Envelope) error {
	return s.Unmarshal(data, env)
}
