package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// LegacyName records one prior identifier a program held before a rename.
type LegacyName struct {
	Identifier string    `json:"identifier"`
	RenamedAt  time.Time `json:"renamed_at"`
	Reason     string    `json:"reason"`
}

func encodeLegacyNames(names []LegacyName) (string, error) {
	if len(names) == 0 {
		return "", nil
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal legacy names: %w", err)
	}
	return string(data), nil
}

func decodeLegacyNames(raw string) ([]LegacyName, error) {
	if raw == "" {
		return nil, nil
	}
	var names []LegacyName
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("unmarshal legacy names: %w", err)
	}
	return names, nil
}
