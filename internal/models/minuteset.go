package models

import (
	"encoding/json"
	"sort"
)

// MinuteSet is an ordered set of minute marks. The zero value is an empty set.
// Values are kept sorted and unique; use With to add, never append directly.
type MinuteSet []int

// Contains reports whether m is in the set.
func (s MinuteSet) Contains(m int) bool {
	i := sort.SearchInts(s, m)
	return i < len(s) && s[i] == m
}

// With returns a new set that also contains m. s is not modified.
func (s MinuteSet) With(m int) MinuteSet {
	i := sort.SearchInts(s, m)
	if i < len(s) && s[i] == m {
		return s.Clone()
	}
	out := make(MinuteSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, m)
	out = append(out, s[i:]...)
	return out
}

// Clone returns a copy of the set.
func (s MinuteSet) Clone() MinuteSet {
	if s == nil {
		return nil
	}
	out := make(MinuteSet, len(s))
	copy(out, s)
	return out
}

// MarshalJSON encodes the set as a JSON array, never null.
func (s MinuteSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(s))
}

// UnmarshalJSON accepts any JSON array of integers and normalizes it.
func (s *MinuteSet) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out MinuteSet
	for _, m := range raw {
		out = out.With(m)
	}
	*s = out
	return nil
}
