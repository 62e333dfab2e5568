package jenkins

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Record is implemented by the Common fallbacks of every polymorphic
// family. They keep the `_class` and the original JSON so the value can be
// converted into a variant registered later on.
type Record interface {
	ClassName() string
	RawJSON() json.RawMessage
}

// variantTypes maps a `_class` to the type registered for it.
var variantTypes sync.Map

type registry[T any] struct {
	kind     string
	mu       sync.RWMutex
	types    map[string]func() T
	fallback func(class string, data json.RawMessage) (T, error)
}

func newRegistry[T any](kind string, fallback func(class string, data json.RawMessage) (T, error)) *registry[T] {
	return &registry[T]{
		kind:     kind,
		types:    make(map[string]func() T),
		fallback: fallback,
	}
}

// register binds a class to a constructor. The constructor has to return a
// pointer so it can be unmarshaled into.
func (r *registry[T]) register(class string, factory func() T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[class] = factory
	variantTypes.Store(class, reflect.TypeOf(factory()))
}

func (r *registry[T]) lookup(class string) (func() T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.types[class]
	return factory, ok
}

func (r *registry[T]) decode(data []byte) (T, error) {
	var (
		zero T
		peek struct {
			Class string `json:"_class"`
		}
	)

	if err := json.Unmarshal(data, &peek); err != nil {
		return zero, fmt.Errorf("failed to read %s class: %w", r.kind, err)
	}

	factory, ok := r.lookup(peek.Class)

	if !ok {
		return r.fallback(peek.Class, data)
	}

	result := factory()

	if err := json.Unmarshal(data, result); err != nil {
		return zero, fmt.Errorf("failed to decode %s %s: %w", r.kind, peek.Class, err)
	}

	return result, nil
}

// decodeList decodes a JSON array, dropping null entries.
func (r *registry[T]) decodeList(data []byte) ([]T, error) {
	var items []json.RawMessage

	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s list: %w", r.kind, err)
	}

	result := make([]T, 0, len(items))

	for _, item := range items {
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			continue
		}

		v, err := r.decode(item)

		if err != nil {
			return nil, err
		}

		result = append(result, v)
	}

	return result, nil
}

// encodeList renders a decoded list the way the API does, with the `_class`
// of every registered variant in front of its fields.
func encodeList[T interface{ ClassName() string }](items []T) ([]byte, error) {
	if items == nil {
		return []byte("null"), nil
	}

	result := make([]json.RawMessage, 0, len(items))

	for _, item := range items {
		if any(item) == nil {
			result = append(result, json.RawMessage("null"))
			continue
		}

		data, err := withClass(item.ClassName(), item)

		if err != nil {
			return nil, err
		}

		result = append(result, data)
	}

	return json.Marshal(result)
}

// withClass marshals v and prepends the class unless the output already
// carries one. Records with an empty class stay as they are.
func withClass(class string, v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)

	if err != nil {
		return nil, fmt.Errorf("failed to encode %q: %w", class, err)
	}

	if class == "" || len(data) < 2 || data[0] != '{' {
		return data, nil
	}

	var peek struct {
		Class *string `json:"_class"`
	}

	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, fmt.Errorf("failed to encode %q: %w", class, err)
	}

	if peek.Class != nil {
		return data, nil
	}

	name, err := json.Marshal(class)

	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(data[1:])
	result := make([]byte, 0, len(data)+len(name)+12)
	result = append(result, `{"_class":`...)
	result = append(result, name...)

	if !bytes.Equal(body, []byte("}")) {
		result = append(result, ',')
	}

	return append(result, body...), nil
}

// fallback decodes a record of an unregistered class into the Common type T
// of a family and returns it as the family interface R.
func fallback[R any, T any, P interface {
	*T
	setRaw(class string, data json.RawMessage)
}](class string, data json.RawMessage) (R, error) {
	var zero R

	result := P(new(T))

	if err := json.Unmarshal(data, result); err != nil {
		return zero, fmt.Errorf("failed to decode %q: %w", class, err)
	}

	result.setRaw(class, append(json.RawMessage(nil), data...))
	return any(result).(R), nil
}

// AsVariant converts a Common record into target, which must be a pointer to
// the type registered for the record's class.
func AsVariant(record Record, target interface{}) error {
	registered, ok := variantTypes.Load(record.ClassName())

	if !ok || registered.(reflect.Type) != reflect.TypeOf(target) {
		return fmt.Errorf("%w: %q cannot be converted to %T", ErrClassMismatch, record.ClassName(), target)
	}

	if err := json.Unmarshal(record.RawJSON(), target); err != nil {
		return fmt.Errorf("failed to convert %s: %w", record.ClassName(), err)
	}

	return nil
}

// As is the generic form of AsVariant.
func As[T any](record Record) (*T, error) {
	result := new(T)

	if err := AsVariant(record, result); err != nil {
		return nil, err
	}

	return result, nil
}

// raw is embedded by the Common fallbacks.
type raw struct {
	class string
	data  json.RawMessage
}

func (r *raw) setRaw(class string, data json.RawMessage) {
	r.class = class
	r.data = data
}

// ClassName returns the `_class` of the record.
func (r *raw) ClassName() string {
	return r.class
}

// RawJSON returns the JSON the record was decoded from.
func (r *raw) RawJSON() json.RawMessage {
	return r.data
}

// MarshalJSON renders records without a registered type as received.
func (r raw) MarshalJSON() ([]byte, error) {
	if len(r.data) == 0 {
		return []byte("{}"), nil
	}

	return r.data, nil
}
