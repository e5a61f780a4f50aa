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

package classpath

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// lookupCache maps resource names to the position of the loader that last
// resolved them. A nil cache stores nothing.
type lookupCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newLookupCache(size int) *lookupCache {
	if size <= 0 {
		return nil
	}

	return &lookupCache{cache: lru.New(size)}
}

func (c *lookupCache) get(name string) (int, bool) {
	if c == nil {
		return 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.cache.Get(name)
	if !ok {
		return 0, false
	}

	return v.(int), true
}

func (c *lookupCache) add(name string, position int) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Add(name, position)
}

func (c *lookupCache) remove(name string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Remove(name)
}

func (c *lookupCache) clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Clear()
}

func (c *lookupCache) len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Len()
}
