// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package uniqueq provides a FIFO queue that accepts each key at most once.
package uniqueq

type pair[K comparable, V any] struct {
	first  K
	second V
}

// UniqueQueue is a queue data structure that will add keys at most once in its
// lifetime. Duplicate keys are ignored when pushing them.
type UniqueQueue[K comparable, V any] struct {
	seen map[K]struct{}
	q    []pair[K, V]
}

// New returns an empty queue. Keys already in seen are treated as pushed;
// seen is updated as keys are pushed and may be nil.
func New[K comparable, V any](seen map[K]struct{}) *UniqueQueue[K, V] {
	if seen == nil {
		seen = make(map[K]struct{})
	}

	return &UniqueQueue[K, V]{
		seen: seen,
	}
}

// Push enqueues key with value unless key was pushed before, and reports
// whether it was added.
func (q *UniqueQueue[K, V]) Push(key K, value V) bool {
	if _, ok := q.seen[key]; ok {
		return false
	}
	q.seen[key] = struct{}{}
	q.q = append(q.q, pair[K, V]{key, value})

	return true
}

func (q *UniqueQueue[K, V]) Seen(key K) bool {
	_, ok := q.seen[key]
	return ok
}

// Pop removes and returns the oldest entry. It panics on an empty queue.
func (q *UniqueQueue[K, V]) Pop() (K, V) {
	item := q.q[0]
	q.q = q.q[1:]

	return item.first, item.second
}

func (q *UniqueQueue[K, V]) Empty() bool {
	return len(q.q) == 0
}

func (q *UniqueQueue[K, V]) Len() int {
	return len(q.q)
}
