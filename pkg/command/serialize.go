package command

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/draftbench/draftbench/pkg/domain"
)

// payloadToMap flattens a typed payload into the opaque Data map of a
// serialized command. Going through JSON keeps the representation identical
// to what a store round-trip would produce.
func payloadToMap(payload any) map[string]any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// decodePayload fills a typed payload struct from a Data map. Weak typing is
// required: JSON round-trips deliver every number as float64.
func decodePayload(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build payload decoder: %w", err)
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("failed to decode command payload: %w", err)
	}
	return nil
}

// decodeSerialized re-reads a nested serialized command from a Data map
// entry (compound children are stored as raw maps).
func decodeSerialized(raw any) (domain.SerializedCommand, error) {
	var sc domain.SerializedCommand
	if err := decodePayload(toAnyMap(raw), &sc); err != nil {
		return domain.SerializedCommand{}, err
	}
	return sc, nil
}

func toAnyMap(raw any) map[string]any {
	if m, ok := raw.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
