// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import "sync"

// rootSet is the client-side roots feature state: a uri-keyed map mutated
// by AddRoot/RemoveRoot, each optionally emitting a list_changed
// notification.
type rootSet struct {
	mu    sync.Mutex
	roots map[string]*Root
}

func newRootSet(initial []*Root) *rootSet {
	rs := &rootSet{roots: make(map[string]*Root, len(initial))}
	for _, r := range initial {
		rs.roots[r.URI] = r
	}
	return rs
}

func (rs *rootSet) add(r *Root) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.roots[r.URI]; ok {
		return &AlreadyExistsError{Key: r.URI}
	}
	rs.roots[r.URI] = r
	return nil
}

func (rs *rootSet) remove(uri string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.roots[uri]; !ok {
		return &NotFoundError{Key: uri}
	}
	delete(rs.roots, uri)
	return nil
}

func (rs *rootSet) list() []*Root {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]*Root, 0, len(rs.roots))
	for _, r := range rs.roots {
		out = append(out, r)
	}
	return out
}
