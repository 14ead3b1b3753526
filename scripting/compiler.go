package scripting

import "github.com/skryldev/videoproc/videoerr"

// CompiledScript is a parsed, ordered, ready-to-evaluate script: a plan
// tree of Single/Sequence/Parallel nodes plus the result ID its trailing
// identifier selects, cached under CompileID so ImageProcessor.Compile can
// dedupe repeated compilation of identical source.
type CompiledScript struct {
	CompileID     uint64
	Plan          PlanNode
	FinalResultID int
}

// Compile parses src and orders its operation graph into an execution
// plan. Nodes are grouped into layers by dependency depth (topological
// order via Kahn's algorithm, per spec.md §4.7): a layer with more than one
// ready node becomes a Parallel node since nothing in it depends on
// anything else in it, a layer with exactly one node becomes a Single
// node, and the layers chain together as a Sequence. A cycle among the
// program's nodes surfaces as ErrCyclicGraph; a dependency on an ID that no
// node of the program produces is treated as already satisfied.
func Compile(src string, reg *Registry) (*CompiledScript, error) {
	prog, err := Parse(src, reg)
	if err != nil {
		return nil, err
	}

	plan, err := order(prog.Nodes)
	if err != nil {
		return nil, err
	}

	return &CompiledScript{
		CompileID:     fnv1aHash(src),
		Plan:          plan,
		FinalResultID: prog.FinalResultID,
	}, nil
}

func order(nodes []ParsedNode) (PlanNode, error) {
	byID := make(map[int]ParsedNode, len(nodes))
	indegree := make(map[int]int, len(nodes))
	for _, n := range nodes {
		byID[n.ResultID] = n
	}
	for _, n := range nodes {
		for _, dep := range n.Deps {
			// Dependencies on raw-input slots (RawPrimaryInput,
			// RawSecondaryInput) or on results outside this program (an
			// already-compiled upstream stage) are always satisfied.
			if _, isNode := byID[dep]; isNode {
				indegree[n.ResultID]++
			}
		}
	}

	remaining := make(map[int]ParsedNode, len(nodes))
	for _, n := range nodes {
		remaining[n.ResultID] = n
	}

	var layers []PlanNode
	for len(remaining) > 0 {
		var ready []ParsedNode
		for id, n := range remaining {
			if indegree[id] == 0 {
				ready = append(ready, n)
			}
		}
		if len(ready) == 0 {
			return nil, videoerr.New(videoerr.CategoryCompile, "scripting.compile", videoerr.ErrCyclicGraph)
		}

		// Stable order: declaration order within the ready set, so
		// repeated compiles of identical source always yield an
		// identical plan shape.
		ordered := make([]ParsedNode, 0, len(ready))
		for _, n := range nodes {
			if _, inRemaining := remaining[n.ResultID]; !inRemaining {
				continue
			}
			if indegree[n.ResultID] == 0 {
				ordered = append(ordered, n)
			}
		}

		var layerNode PlanNode
		if len(ordered) == 1 {
			layerNode = &singleNode{resultID: ordered[0].ResultID, compile: ordered[0].Compile}
		} else {
			children := make([]PlanNode, len(ordered))
			for i, n := range ordered {
				children[i] = &singleNode{resultID: n.ResultID, compile: n.Compile}
			}
			layerNode = &parallelNode{children: children}
		}
		layers = append(layers, layerNode)

		for _, n := range ordered {
			delete(remaining, n.ResultID)
			for _, other := range remaining {
				for _, dep := range other.Deps {
					if dep == n.ResultID {
						indegree[other.ResultID]--
					}
				}
			}
		}
	}

	if len(layers) == 1 {
		return layers[0], nil
	}
	return &sequenceNode{children: layers}, nil
}

// fnv1aHash computes the 64-bit FNV-1a hash of s, used as the compile
// cache key (spec.md §4.8).
func fnv1aHash(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
