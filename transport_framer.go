package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultChunkSize keeps each attribute write under the link's payload ceiling
// once base64 encoded.
const DefaultChunkSize = 180

// Chunk is one base64-encoded slice of the serialized payload
type Chunk string

// TransportFramer serializes command lists and slices them for the link
type TransportFramer struct {
	chunkSize int
}

// NewTransportFramer creates a framer. chunkSize is in bytes of serialized
// text before encoding.
func NewTransportFramer(chunkSize int) (*TransportFramer, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0, got %d", chunkSize)
	}
	return &TransportFramer{chunkSize: chunkSize}, nil
}

// Serialize encodes all stroke programs as a JSON array of arrays in stroke
// order. Empty strokes are encoded as [].
func (tf *TransportFramer) Serialize(lists []CommandList) ([]byte, error) {
	payload := make([]CommandList, len(lists))
	for i, list := range lists {
		if list == nil {
			list = CommandList{}
		}
		payload[i] = list
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize commands: %w", err)
	}
	return data, nil
}

// Split slices data into pieces of at most chunkSize bytes
func (tf *TransportFramer) Split(data []byte) [][]byte {
	var slices [][]byte
	for start := 0; start < len(data); start += tf.chunkSize {
		end := start + tf.chunkSize
		if end > len(data) {
			end = len(data)
		}
		slices = append(slices, data[start:end])
	}
	return slices
}

// Frame serializes lists and returns the encoded chunks in transmission order.
// No terminator is appended; the receiver concatenates chunks in order.
func (tf *TransportFramer) Frame(lists []CommandList) ([]Chunk, error) {
	data, err := tf.Serialize(lists)
	if err != nil {
		return nil, err
	}

	slices := tf.Split(data)
	chunks := make([]Chunk, len(slices))
	for i, s := range slices {
		chunks[i] = Chunk(base64.StdEncoding.EncodeToString(s))
	}
	return chunks, nil
}

// Reassemble decodes chunks and concatenates them in order, the way the
// robot firmware rebuilds the payload.
func Reassemble(chunks []Chunk) ([]byte, error) {
	var data []byte
	for i, c := range chunks {
		decoded, err := base64.StdEncoding.DecodeString(string(c))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		data = append(data, decoded...)
	}
	return data, nil
}
