// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package datacache

import "container/list"

// recency orders live keys. Front is the least recently touched key, back the
// most recent one. Every live key has exactly one element.
type recency[K comparable] struct {
	order *list.List
}

func newRecency[K comparable]() *recency[K] {
	return &recency[K]{order: list.New()}
}

// push appends key at the most recent end.
func (r *recency[K]) push(key K) *list.Element {
	return r.order.PushBack(key)
}

func (r *recency[K]) touch(elem *list.Element) {
	r.order.MoveToBack(elem)
}

func (r *recency[K]) remove(elem *list.Element) {
	r.order.Remove(elem)
}

// oldest returns the least recently touched key.
func (r *recency[K]) oldest() (K, bool) {
	front := r.order.Front()
	if front == nil {
		var zero K
		return zero, false
	}
	return front.Value.(K), true
}

func (r *recency[K]) reset() {
	r.order.Init()
}

func (r *recency[K]) len() int {
	return r.order.Len()
}

// keys returns the keys from least to most recent.
func (r *recency[K]) keys() []K {
	out := make([]K, 0, r.order.Len())
	for e := r.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(K))
	}
	return out
}
