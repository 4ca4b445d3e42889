package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializerCodecs(t *testing.T) {
	for _, codec := range []string{CodecJSON, CodecMsgpack, CodecCBOR, CodecYAML} {
		t.Run(codec, func(t *testing.T) {
			s, err := NewSerializer(codec)
			require.NoError(t, err)
			assert.Equal(t, codec, s.CodecType())

			data, err := s.MarshalEnvelope("session-1", "dkg-round1", 2, 3, map[string]string{"hello": "frost"})
			require.NoError(t, err)

			var env Envelope
			require.NoError(t, s.UnmarshalEnvelope(data, &env))
			assert.Equal(t, "session-1", env.SessionID)
			assert.Equal(t, Phase("dkg-round1"), env.Phase)
			assert.Equal(t, PartyID(2), env.From)
			assert.Equal(t, PartyID(3), env.To)
			assert.NotZero(t, env.Timestamp)

			var inner map[string]string
			require.NoError(t, s.Unmarshal(env.Payload, &inner))
			assert.Equal(t, "frost", inner["hello"])
		})
	}
}

func TestSerializerUnsupportedCodec(t *testing.T) {
	_, err := NewSerializer("xml")
	require.Error(t, err)

	var serErr *SerializerError
	require.True(t, errors.As(err, &serErr))
	assert.Equal(t, "create", serErr.Operation)
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestSerializerUnmarshalError(t *testing.T) {
	s, err := NewSerializer(CodecJSON)
	require.NoError(t, err)

	var env Envelope
	err = s.Unmarshal([]byte("{not json"), &env)
	var serErr *SerializerError
	require.True(t, errors.As(err, &serErr))
	assert.Equal(t, "unmarshal", serErr.Operation)
}

func TestErrorsUnwrap(t *testing.T) {
	err := &ParticipantError{Party: 4, Err: ErrUnknownParty}
	assert.ErrorIs(t, err, ErrUnknownParty)
	assert.Contains(t, err.Error(), "participant 4")

	collect := &CollectError{Phase: "sign", To: 1, Expected: 2, Received: 1, Err: ErrTimeout}
	assert.ErrorIs(t, collect, ErrTimeout)
	assert.Contains(t, collect.Error(), "received 1 of 2")

	sess := &SessionError{SessionID: "abc", Phase: "sign", Err: ErrInvalidMessage}
	assert.ErrorIs(t, sess, ErrInvalidMessage)
}
