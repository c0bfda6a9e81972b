package protocol

import (
	"encoding/json"
	"fmt"
)

// Response is the tagged success/error envelope. The zero Err means success.
// Serialized form is {"Success":<payload>} or {"Error":"<kind>"} regardless
// of the payload type.
type Response[T any] struct {
	Value T
	Err   ErrorKind
}

// Success wraps a payload in a success envelope.
func Success[T any](value T) Response[T] {
	return Response[T]{Value: value}
}

// Failure wraps an error kind in an error envelope.
func Failure[T any](kind ErrorKind) Response[T] {
	return Response[T]{Err: kind}
}

// Result unpacks the envelope into Go's usual value/error pair.
func (r Response[T]) Result() (T, error) {
	if r.Err != "" {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}

func (r Response[T]) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(map[string]ErrorKind{"Error": r.Err})
	}
	return json.Marshal(map[string]T{"Success": r.Value})
}

func (r *Response[T]) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if payload, ok := tagged["Success"]; ok {
		var value T
		if err := json.Unmarshal(payload, &value); err != nil {
			return fmt.Errorf("unmarshal success payload: %w", err)
		}
		*r = Response[T]{Value: value}
		return nil
	}
	if payload, ok := tagged["Error"]; ok {
		var kind ErrorKind
		if err := json.Unmarshal(payload, &kind); err != nil {
			return fmt.Errorf("unmarshal error kind: %w", err)
		}
		if !validKind(kind) {
			return fmt.Errorf("unmarshal response: unknown error kind %q", kind)
		}
		*r = Response[T]{Err: kind}
		return nil
	}
	return fmt.Errorf("unmarshal response: neither Success nor Error present")
}
