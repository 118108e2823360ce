package modrequest

import "strings"

// KV splits a Request's Args into key=value pairs and leftover
// positional arguments, in the order each appeared. Modules that
// expect named parameters (e.g. fs's path=..., encoding=...) use
// this instead of re-parsing Args themselves.
func (r Request) KV() (kv map[string]string, positional []string) {
	kv = make(map[string]string)
	for _, a := range r.Args {
		if key, value, ok := strings.Cut(a, "="); ok {
			kv[key] = value
			continue
		}
		positional = append(positional, a)
	}
	return kv, positional
}
