package mirror

import (
	"bytes"
	"encoding/json"
)

// Ref is a foreign reference to an entity owned by another collection. The server sends it as
// null (the entity is gone), a bare id string, or the populated entity itself.
type Ref[T any] struct {
	ID    string
	Value *T
}

// Resolved reports whether the reference names an entity.
func (r Ref[T]) Resolved() bool {
	return r.ID != ""
}

// Populated reports whether the referenced entity was sent inline.
func (r Ref[T]) Populated() bool {
	return r.Value != nil
}

func NewRef[T any](id string) Ref[T] {
	return Ref[T]{ID: id}
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	*r = Ref[T]{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}

	var ids struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.ID = ids.MongoID
	if r.ID == "" {
		r.ID = ids.ID
	}
	r.Value = &v
	return nil
}

// MarshalJSON writes the id only, which is what the API expects on requests.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}
