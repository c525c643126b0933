package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"subwise/internal/core"
)

// Encode serializes the whole collection as a JSON array of records.
func Encode(subs []core.Subscription) ([]byte, error) {
	return json.Marshal(core.Records(subs))
}

// Decode parses a persisted collection. Anything that is not an array of
// valid records with unique ids is reported as core.ErrMalformedData.
func Decode(raw []byte) ([]core.Subscription, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: not a JSON array", core.ErrMalformedData)
	}
	var records []core.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedData, err)
	}
	subs, err := fromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedData, err)
	}
	return subs, nil
}

func fromRecords(records []core.Record) ([]core.Subscription, error) {
	subs := make([]core.Subscription, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		s, err := r.Subscription()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = struct{}{}
		subs = append(subs, s)
	}
	return subs, nil
}

func clone(subs []core.Subscription) []core.Subscription {
	out := make([]core.Subscription, len(subs))
	copy(out, subs)
	return out
}
