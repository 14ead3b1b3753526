package scripting

import (
	"sync"

	"github.com/skryldev/videoproc/execpool"
)

// PlanNode is one node of a compiled execution plan: a singleNode,
// sequenceNode or parallelNode.
type PlanNode interface {
	run(ctx *Context, pool *execpool.Pool) error
}

// singleNode runs exactly one operation node.
type singleNode struct {
	resultID int
	compile  CompileFunc
}

func (n *singleNode) run(ctx *Context, pool *execpool.Pool) error {
	return n.compile(ctx, pool)
}

// sequenceNode runs its children strictly in order, stopping at the first
// error — the chain the compiler emits when one wave's result feeds
// directly into the next.
type sequenceNode struct {
	children []PlanNode
}

func (n *sequenceNode) run(ctx *Context, pool *execpool.Pool) error {
	for _, c := range n.children {
		if err := c.run(ctx, pool); err != nil {
			return err
		}
	}
	return nil
}

// parallelNode runs its children concurrently and waits for all of them,
// returning the first error encountered (if any) — the grouping the
// compiler emits for sibling nodes with no dependency between them. Children
// run on plain goroutines, not on pool: they block on the leaf tiles they
// submit to pool, which pool.Go does not allow its tasks to do.
type parallelNode struct {
	children []PlanNode
}

func (n *parallelNode) run(ctx *Context, pool *execpool.Pool) error {
	var wg sync.WaitGroup
	errs := make([]error, len(n.children))
	for i, c := range n.children {
		wg.Add(1)
		i, c := i, c
		go func() {
			defer wg.Done()
			errs[i] = c.run(ctx, pool)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
