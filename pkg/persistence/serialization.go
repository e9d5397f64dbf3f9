package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
)

// MarshalHistory serializes a History to the slot's JSON array format.
// A nil history is written as an empty array, never as null.
func MarshalHistory(h types.History) ([]byte, error) {
	if h == nil {
		h = types.History{}
	}

	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal History to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalHistory deserializes the slot's JSON array into a History.
func UnmarshalHistory(data []byte) (types.History, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var h types.History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to History: %w", err)
	}

	// "null" decodes without error
	if h == nil {
		return nil, fmt.Errorf("history slot holds null, expected an array")
	}

	return h, nil
}
