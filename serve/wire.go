package serve

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct encodes a value into a google.protobuf.Struct through its JSON
// form. The value must marshal to a JSON object; all SDK result types
// (multihop.Result, cypher.Result, ner.Extraction, health.Status) do.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("failed to convert payload: %w", err)
	}
	return s, nil
}

// FromStruct decodes a google.protobuf.Struct into T through its JSON form.
// It is the inverse of ToStruct and is what callers use to turn a response
// payload back into the SDK result type.
func FromStruct[T any](s *structpb.Struct) (*T, error) {
	if s == nil {
		return nil, errors.New("nil struct")
	}

	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode struct: %w", err)
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return out, nil
}

// stringField reads a string-valued field from a request payload.
// Missing fields and non-string values read as "".
func stringField(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}
