package idcache

import (
	"strconv"
	"strings"
)

// urlCache stores string identifiers with their prefix (everything up to
// and including the last '/' or '#') replaced by a short code. URL shaped
// identifiers from a single dataset share very few distinct prefixes, so the
// table stays small while the per-entry keys shrink to the local name.
type urlCache struct {
	*mapCache[string]
	prefixes map[string]string
}

func newURLCache() *urlCache {
	c := &urlCache{prefixes: make(map[string]string)}
	c.mapCache = newMapCache(c.compress)
	return c
}

// Get does not allocate a code for an unseen prefix; no entry can use it.
func (c *urlCache) Get(externalID any) (Entry, error) {
	s, err := stringKey(externalID)
	if err != nil {
		return Entry{}, err
	}
	prefix, local := splitURL(s)
	if prefix == "" {
		return c.lookup("\x00" + local), nil
	}
	code, ok := c.prefixes[prefix]
	if !ok {
		return Entry{Kind: Absent}, nil
	}
	return c.lookup(code + "\x00" + local), nil
}

func (c *urlCache) Key(externalID any) (any, error) {
	return stringKey(externalID)
}

func (c *urlCache) compress(id any) (string, error) {
	s, err := stringKey(id)
	if err != nil {
		return "", err
	}
	prefix, local := splitURL(s)
	if prefix == "" {
		return "\x00" + local, nil
	}
	code, ok := c.prefixes[prefix]
	if !ok {
		code = strconv.FormatInt(int64(len(c.prefixes)+1), 36)
		c.prefixes[prefix] = code
	}
	return code + "\x00" + local, nil
}

func splitURL(s string) (prefix, local string) {
	cut := strings.LastIndexAny(s, "/#")
	if cut < 0 {
		return "", s
	}
	return s[:cut+1], s[cut+1:]
}

// Prefixes returns the number of distinct prefixes seen
func (c *urlCache) Prefixes() int {
	return len(c.prefixes)
}
