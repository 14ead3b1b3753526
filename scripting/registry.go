package scripting

import (
	"fmt"
	"sync"

	"github.com/skryldev/videoproc/execpool"
)

// CompileFunc is the closure an Overload.Build produces: it runs one
// operation node against a Context during evaluation, reading its operand
// items and storing its result under its own result ID. Image-shaped
// operations dispatch tile work onto pool; scalar operations may ignore it.
type CompileFunc func(ctx *Context, pool *execpool.Pool) error

// ResolvedArg is one positional argument after parse-time overload
// resolution: either a literal value or a reference to another node's
// result, tagged with the type the chosen overload expects it to carry.
type ResolvedArg struct {
	IsRef bool
	RefID int
	Type  ItemType

	Int  int64
	Real float64
	Str  string
}

// Item resolves a literal ResolvedArg into an Item. Ref arguments must be
// fetched from the Context at execution time instead.
func (a ResolvedArg) Item() Item {
	switch a.Type {
	case TypeInt:
		return Item{Type: TypeInt, Int: a.Int}
	case TypeReal:
		return Item{Type: TypeReal, Real: a.Real}
	case TypeString:
		return Item{Type: TypeString, Str: a.Str}
	default:
		return Item{}
	}
}

// Overload is one callable signature an Operation exposes. The parser picks
// the unique overload whose ArgTypes match the call site's argument types;
// zero or multiple matches are parse errors (spec.md §4.6's
// ErrNoMatchingOverload / ErrAmbiguousOverload).
type Overload struct {
	ArgTypes []ItemType
	Result   ItemType
	Build    func(resultID int, args []ResolvedArg) (CompileFunc, error)
}

// Operation is the plug-in contract every leaf (scripting/ops) and
// composite algorithm registers under, generalized from the teacher's
// Decoder/Encoder Registry (core/registry.go) to operation-name lookup.
type Operation interface {
	// Name is the DSL identifier the parser matches a call against, e.g.
	// "mean", "binary_threshold".
	Name() string
	Overloads() []Overload
}

// Registry resolves operation names to their implementations. A package
// level Registry (Default) is populated by each ops package's init().
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operation)}
}

// Register adds op, panicking on a duplicate name — a programming error,
// not a runtime condition, since registrations happen in init().
func (r *Registry) Register(op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := op.Name()
	if _, exists := r.ops[name]; exists {
		panic(fmt.Sprintf("scripting: operation %q already registered", name))
	}
	r.ops[name] = op
}

// Lookup returns the Operation registered under name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Default is the global registry every ops package init() registers into.
// Parse and Compile always take an explicit Registry; NewImageProcessor
// falls back to Default when given nil.
var Default = NewRegistry()
