package anim

type cacheKey struct {
	template *Template
	topology string
}

// Cache keeps one bound prototype per template value and model topology, so a
// template is resolved once however many instances replay it.
// It is not safe for concurrent use.
type Cache struct {
	entries map[cacheKey]*Anim
	hits    int
	misses  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Anim)}
}

// Prototype returns the bound prototype of tpl for models with the given
// topology key, binding against target on first use. Pass the result to
// Player.Set to get an independent instance.
func (c *Cache) Prototype(tpl *Template, topology string, target Target) (*Anim, error) {
	key := cacheKey{template: tpl, topology: topology}
	if a, ok := c.entries[key]; ok {
		c.hits++
		return a, nil
	}
	a, err := Bind(tpl, target)
	if err != nil {
		return nil, err
	}
	c.misses++
	c.entries[key] = a
	return a, nil
}

// Len returns the number of cached prototypes.
func (c *Cache) Len() int { return len(c.entries) }

// Hits returns how many lookups were served without binding.
func (c *Cache) Hits() int { return c.hits }

// Misses returns how many lookups had to bind.
func (c *Cache) Misses() int { return c.misses }
