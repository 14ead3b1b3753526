package scripting

import "github.com/skryldev/videoproc/videoerr"

// RawPrimaryInput and RawSecondaryInput are the Context slots the image
// processor seeds before evaluating a compiled script: the primary frame
// always lands at RawPrimaryInput, and for inter-frame scripts the second
// frame lands at RawSecondaryInput, per spec.md §4.6's "stores input(s) at
// IDs 0 (and 2)". They are negative so no parsed statement's result ID,
// which the parser assigns starting from 0, can ever collide with them.
const (
	RawPrimaryInput   = -1
	RawSecondaryInput = -2
)

// Context holds the per-evaluation state a compiled script reads and
// writes while it runs: every result ID an operation has produced so far,
// a pointer to whichever result was stored most recently, and the read-only parameter
// table add_param populates (cutoff_x, cutoff_y, and anything an operation
// chooses to read). One Context exists per processing-context run and is
// never shared across concurrent evaluations.
type Context struct {
	results    map[int]Item
	lastStored int
	params     map[string]float64
}

// NewContext creates an empty Context seeded with params, which is shared
// read-only across every evaluation of a given compiled script (add_param
// mutates the processor's copy, not a running Context's).
func NewContext(params map[string]float64) *Context {
	cp := make(map[string]float64, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return &Context{
		results:    make(map[int]Item),
		lastStored: -1,
		params:     cp,
	}
}

// Store records item under resultID and marks it as the most recently
// stored result.
func (c *Context) Store(resultID int, item Item) {
	c.results[resultID] = item
	c.lastStored = resultID
}

// Get fetches the item stored under resultID. ok is false if nothing has
// been stored there yet, which signals an unreferenced-result or
// cyclic-graph bug in the compiled plan (videoerr.ErrUnreferencedResult).
func (c *Context) Get(resultID int) (Item, bool) {
	it, ok := c.results[resultID]
	return it, ok
}

// MustGet fetches resultID, returning a videoerr.ErrUnreferencedResult if
// it is absent. Operation Execute closures use this to fail fast rather
// than panic on a malformed plan.
func (c *Context) MustGet(resultID int) (Item, error) {
	it, ok := c.results[resultID]
	if !ok {
		return Item{}, videoerr.New(videoerr.CategoryCompile, "scripting.context.get", videoerr.ErrUnreferencedResult)
	}
	return it, nil
}

// Last returns the most recently stored item. The script's result is not
// read from here: ImageProcessor.Evaluate selects it by
// CompiledScript.FinalResultID.
func (c *Context) Last() (Item, bool) {
	if c.lastStored < 0 {
		return Item{}, false
	}
	return c.Get(c.lastStored)
}

// Param reads a named parameter, returning ok=false if it was never set.
func (c *Context) Param(name string) (float64, bool) {
	v, ok := c.params[name]
	return v, ok
}

// ParamOr reads a named parameter, falling back to def if unset.
func (c *Context) ParamOr(name string, def float64) float64 {
	if v, ok := c.params[name]; ok {
		return v
	}
	return def
}
