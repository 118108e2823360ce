// Package modcache caches module-request results so that an
// identical request issued again within the same task reuses the
// first result instead of re-dispatching to the module. The cache
// key is canonicalized so that argument ordering of key=value pairs
// or incidental whitespace does not produce spurious misses.
package modcache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Key identifies one cacheable module request.
type Key struct {
	TaskID string
	Module string
	Action string
	Args   []string
}

// canonical renders a Key as a stable string: args are sorted so
// that request text like `path=a.txt encoding=utf8` and
// `encoding=utf8 path=a.txt` collide on the same cache entry.
func (k Key) canonical() string {
	args := make([]string, len(k.Args))
	copy(args, k.Args)
	sort.Strings(args)
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s", k.TaskID, k.Module, k.Action, strings.Join(args, "\x1e"))
}

// entry holds the successful result of a prior dispatch at this key.
// Failures are never cached: a disallowed command can become
// allowed if the operator edits the allow-list, and a timeout may
// simply succeed on retry, so every failed dispatch must be retried.
type entry struct {
	result string
}

// Cache is scoped to a single task's lifetime. Callers create one per
// task and discard it when the task completes.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

// New returns an empty, task-scoped cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the cached result for key, if present. isErr is always
// false: only successful dispatches are ever stored.
func (c *Cache) Get(key Key) (result string, isErr bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.canonical()]
	if !ok {
		return "", false, false
	}
	return e.result, false, true
}

// Put stores the result of dispatching key, win-first: if another
// goroutine already populated this key (two identical requests
// racing within the same turn), the first write stands and
// subsequent Put calls for the same key are no-ops. A failed
// dispatch (isErr true) is never stored, so the next identical
// request re-dispatches instead of replaying a stale failure.
func (c *Cache) Put(key Key, result string, isErr bool) {
	if isErr {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key.canonical()
	if _, exists := c.entries[k]; exists {
		return
	}
	c.entries[k] = entry{result: result}
}

// Len reports how many distinct requests are cached, for tests and
// diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
