// Package evalctx models the evaluation context handed to flag resolvers: an
// ordered key/value bag whose values are scalars, sequences or nested mappings.
package evalctx

// Context is the top-level key/value bag supplied by a flag-evaluation caller.
// Iteration follows insertion order. A nil *Context is an absent context and
// is safe to read from.
type Context struct {
	attrs *Map
}

// New returns an empty context.
func New() *Context {
	return &Context{attrs: NewMap()}
}

// FromMap wraps an existing mapping as a context. The mapping is not copied.
func FromMap(m *Map) *Context {
	if m == nil {
		m = NewMap()
	}
	return &Context{attrs: m}
}

// Set stores value under key and returns the context for chaining.
func (c *Context) Set(key string, value Value) *Context {
	if c.attrs == nil {
		c.attrs = NewMap()
	}
	c.attrs.Set(key, value)
	return c
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	return c.attrs.Get(key)
}

// Len returns the number of top-level entries.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return c.attrs.Len()
}

// Range calls fn for each top-level entry in insertion order until fn
// returns false.
func (c *Context) Range(fn func(key string, value Value) bool) {
	if c == nil {
		return
	}
	c.attrs.Range(fn)
}

// Keys returns the top-level keys in insertion order.
func (c *Context) Keys() []string {
	if c == nil {
		return nil
	}
	return c.attrs.Keys()
}

// Attributes exposes the underlying mapping.
func (c *Context) Attributes() *Map {
	if c == nil {
		return nil
	}
	return c.attrs
}

// Value returns the context as a Mapping value.
func (c *Context) Value() Value {
	if c == nil {
		return Null()
	}
	return Obj(c.attrs)
}

// Interface converts the context to a plain map[string]any, or nil for an
// absent context.
func (c *Context) Interface() map[string]any {
	if c == nil {
		return nil
	}
	return c.attrs.Interface()
}

// Clone returns a deep copy of the context.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	return &Context{attrs: c.attrs.Clone()}
}
