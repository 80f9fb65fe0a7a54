/*
Copyright The CloudNativePG Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package stringset implements a small set of strings, used throughout
// gridconverge to represent subscription-id sets (the Converger's create
// and delete sets, the Service's configured ids) without reaching for a
// generic container library.
package stringset

import "sort"

// Data is a set of strings.
type Data struct {
	internal map[string]struct{}
}

// New creates a new empty set.
func New() *Data {
	return &Data{internal: make(map[string]struct{})}
}

// From creates a new set from a slice of strings.
func From(vals []string) *Data {
	set := New()
	for _, v := range vals {
		set.Put(v)
	}
	return set
}

// FromKeys creates a new set from the keys of a map having strings as keys.
func FromKeys[V any](vals map[string]V) *Data {
	set := New()
	for k := range vals {
		set.Put(k)
	}
	return set
}

// Put adds a string to the set.
func (set *Data) Put(k string) {
	set.internal[k] = struct{}{}
}

// Delete removes a string from the set, if present.
func (set *Data) Delete(k string) {
	delete(set.internal, k)
}

// Has returns true if the string is in the set.
func (set *Data) Has(k string) bool {
	_, ok := set.internal[k]
	return ok
}

// Len returns the number of elements in the set.
func (set *Data) Len() int {
	return len(set.internal)
}

// ToList returns the (unordered) list of strings in the set.
func (set *Data) ToList() []string {
	result := make([]string, 0, len(set.internal))
	for k := range set.internal {
		result = append(result, k)
	}
	return result
}

// ToSortedList returns the sorted list of strings in the set.
func (set *Data) ToSortedList() []string {
	result := set.ToList()
	sort.Strings(result)
	return result
}

// Eq returns true if the two sets contain exactly the same elements.
func (set *Data) Eq(other *Data) bool {
	if set.Len() != other.Len() {
		return false
	}
	for k := range set.internal {
		if !other.Has(k) {
			return false
		}
	}
	return true
}
