package store

import "encoding/json"

// Snapshots are stored as opaque JSON blobs regardless of backend.

func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decode(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}
