package models

import "encoding/json"

// Optional carries a value together with a presence flag. Set is true when the
// field appeared in the decoded JSON document, even with a null value.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ProfileUpdate is a sparse profile update: only fields with Set are applied.
// Bio and Location accept null to clear the stored value.
type ProfileUpdate struct {
	Name        Optional[string]       `json:"name"`
	Age         Optional[int]          `json:"age"`
	Bio         Optional[*string]      `json:"bio"`
	Photos      Optional[[]string]     `json:"photos"`
	Location    Optional[*Location]    `json:"location"`
	Preferences Optional[*Preferences] `json:"preferences"`
}

// Empty reports whether no field is present
func (p ProfileUpdate) Empty() bool {
	return !p.Name.Set && !p.Age.Set && !p.Bio.Set && !p.Photos.Set &&
		!p.Location.Set && !p.Preferences.Set
}
