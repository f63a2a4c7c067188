package main

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransportFramerRejectsInvalidChunkSize(t *testing.T) {
	_, err := NewTransportFramer(0)
	assert.Error(t, err)

	_, err = NewTransportFramer(-5)
	assert.Error(t, err)
}

func TestSerializeWireFormat(t *testing.T) {
	framer, err := NewTransportFramer(DefaultChunkSize)
	require.NoError(t, err)

	data, err := framer.Serialize([]CommandList{
		{{Type: TurnRight, Value: 90}, {Type: MoveForward, Value: 14.1}},
		nil,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `[[{"type":"turn_right","value":90},{"type":"move_forward","value":14.1}],[]]`, string(data))
	assert.Equal(t, `[[{"type":"turn_right","value":90},{"type":"move_forward","value":14.1}],[]]`, string(data))
}

func TestSerializeEmptyDrawing(t *testing.T) {
	framer, err := NewTransportFramer(DefaultChunkSize)
	require.NoError(t, err)

	data, err := framer.Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	chunks, err := framer.Frame(nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, Chunk(base64.StdEncoding.EncodeToString([]byte("[]"))), chunks[0])
}

func TestSplitChunkBoundaries(t *testing.T) {
	framer, err := NewTransportFramer(180)
	require.NoError(t, err)

	slices := framer.Split([]byte(strings.Repeat("a", 190)))
	require.Len(t, slices, 2)
	assert.Len(t, slices[0], 180)
	assert.Len(t, slices[1], 10)

	assert.Len(t, framer.Split([]byte(strings.Repeat("b", 180))), 1)
	assert.Empty(t, framer.Split(nil))
}

func TestFrameRoundTrip(t *testing.T) {
	framer, err := NewTransportFramer(DefaultChunkSize)
	require.NoError(t, err)

	lists := make([]CommandList, 0, 12)
	for i := 0; i < 12; i++ {
		lists = append(lists, CommandList{
			{Type: TurnLeft, Value: float64(10 + i)},
			{Type: MoveForward, Value: 12.5},
		})
	}

	serialized, err := framer.Serialize(lists)
	require.NoError(t, err)
	require.Greater(t, len(serialized), DefaultChunkSize)

	chunks, err := framer.Frame(lists)
	require.NoError(t, err)
	assert.Len(t, chunks, (len(serialized)+DefaultChunkSize-1)/DefaultChunkSize)

	for _, c := range chunks {
		decoded, err := base64.StdEncoding.DecodeString(string(c))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(decoded), DefaultChunkSize)
	}

	reassembled, err := Reassemble(chunks)
	require.NoError(t, err)
	assert.Equal(t, serialized, reassembled)

	var decoded []CommandList
	require.NoError(t, json.Unmarshal(reassembled, &decoded))
	assert.Equal(t, lists, decoded)
}

func TestReassembleRejectsInvalidChunk(t *testing.T) {
	_, err := Reassemble([]Chunk{"W10=", "not base64!"})
	assert.ErrorContains(t, err, "chunk 1")
}
