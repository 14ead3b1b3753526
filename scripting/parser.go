package scripting

import (
	"fmt"

	"github.com/skryldev/videoproc/videoerr"
)

// ParsedNode is one operation call bound to a fresh result ID, with its
// dependency edges already resolved to producer result IDs so the compiler
// can topologically order the graph without re-parsing.
type ParsedNode struct {
	ResultID int
	OpName   string
	Deps     []int
	Type     ItemType
	Compile  CompileFunc
}

// Program is the output of Parse: every node the script declared, in
// declaration order, plus the result ID the trailing bare identifier
// selects as the script's overall result.
type Program struct {
	Nodes         []ParsedNode
	FinalResultID int
}

type parser struct {
	toks    []token
	pos     int
	reg     *Registry
	symbols map[string]int
	types   map[int]ItemType
	nodes   []ParsedNode
	nextID  int
}

// Parse compiles script source into a Program against reg. Use
// scripting.Default unless the caller maintains its own operation set.
func Parse(src string, reg *Registry) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, videoerr.Wrap(videoerr.CategoryParse, "scripting.parse", err)
	}
	p := &parser{
		toks:    toks,
		reg:     reg,
		symbols: make(map[string]int),
		types:   make(map[int]ItemType),
	}
	return p.parseProgram()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance()    { p.pos++ }

func (p *parser) parseProgram() (*Program, error) {
	finalResultID := -1

	for p.cur().kind != tokEOF {
		if p.cur().kind == tokSemicolon {
			p.advance()
			continue
		}
		if p.cur().kind != tokIdent {
			return nil, videoerr.New(videoerr.CategoryParse, "scripting.parse", fmt.Errorf("expected identifier, got token kind %d", p.cur().kind))
		}
		name := p.cur().text

		// Lookahead: "name = call(...)" is an assignment; a bare call
		// "op(...)" is an unnamed result expression; a bare "name" with no
		// following '=' or '(' is the trailing result selector.
		if p.toks[p.pos+1].kind == tokEquals {
			p.advance() // name
			p.advance() // '='
			resultID, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			p.symbols[name] = resultID
			finalResultID = resultID
		} else if p.toks[p.pos+1].kind == tokLParen {
			resultID, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			finalResultID = resultID
		} else {
			resultID, ok := p.symbols[name]
			if !ok {
				return nil, videoerr.New(videoerr.CategoryParse, "scripting.parse", fmt.Errorf("reference to undeclared identifier %q", name))
			}
			p.advance()
			finalResultID = resultID
		}

		if p.cur().kind == tokSemicolon {
			p.advance()
		}
	}

	if finalResultID < 0 {
		return nil, videoerr.New(videoerr.CategoryParse, "scripting.parse", videoerr.ErrEmptyInput)
	}

	return &Program{Nodes: p.nodes, FinalResultID: finalResultID}, nil
}

// parseCall parses "opname(args...)" and returns the fresh result ID
// assigned to it.
func (p *parser) parseCall() (int, error) {
	opName := p.cur().text
	p.advance()

	if p.cur().kind != tokLParen {
		return 0, videoerr.New(videoerr.CategoryParse, "scripting.parse", fmt.Errorf("expected '(' after operation name %q", opName))
	}
	p.advance()

	var args []ResolvedArg
	for p.cur().kind != tokRParen {
		arg, err := p.parseArg()
		if err != nil {
			return 0, err
		}
		args = append(args, arg)
		if p.cur().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if p.cur().kind != tokRParen {
		return 0, videoerr.New(videoerr.CategoryParse, "scripting.parse", fmt.Errorf("expected ')' closing call to %q", opName))
	}
	p.advance()

	op, ok := p.reg.Lookup(opName)
	if !ok {
		return 0, videoerr.New(videoerr.CategoryParse, "scripting.parse", fmt.Errorf("%w: %q", videoerr.ErrUnknownOperation, opName))
	}

	overload, err := resolveOverload(op, args)
	if err != nil {
		return 0, err
	}

	resultID := p.nextID
	p.nextID++

	compile, err := overload.Build(resultID, args)
	if err != nil {
		return 0, videoerr.Wrap(videoerr.CategoryParse, "scripting.parse", err)
	}

	var deps []int
	for _, a := range args {
		if a.IsRef {
			deps = append(deps, a.RefID)
		}
	}

	p.types[resultID] = overload.Result
	p.nodes = append(p.nodes, ParsedNode{
		ResultID: resultID,
		OpName:   opName,
		Deps:     deps,
		Type:     overload.Result,
		Compile:  compile,
	})
	return resultID, nil
}

func (p *parser) parseArg() (ResolvedArg, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		return ResolvedArg{Type: TypeInt, Int: t.i}, nil
	case tokReal:
		p.advance()
		return ResolvedArg{Type: TypeReal, Real: t.f}, nil
	case tokString:
		p.advance()
		return ResolvedArg{Type: TypeString, Str: t.text}, nil
	case tokIdent:
		name := t.text
		resultID, ok := p.symbols[name]
		if !ok {
			return ResolvedArg{}, videoerr.New(videoerr.CategoryParse, "scripting.parse", fmt.Errorf("reference to undeclared identifier %q", name))
		}
		p.advance()
		return ResolvedArg{IsRef: true, RefID: resultID, Type: p.types[resultID]}, nil
	default:
		return ResolvedArg{}, videoerr.New(videoerr.CategoryParse, "scripting.parse", fmt.Errorf("unexpected token in argument list, kind %d", t.kind))
	}
}

// resolveOverload picks the Overload whose ArgTypes match args exactly.
// Zero matches is an unknown-overload error; more than one is ambiguous —
// operations are expected to register non-overlapping signatures, per
// spec.md §4.6's overload resolution rule.
func resolveOverload(op Operation, args []ResolvedArg) (Overload, error) {
	var match *Overload
	matches := 0
	for _, ov := range op.Overloads() {
		if len(ov.ArgTypes) != len(args) {
			continue
		}
		ok := true
		for i, want := range ov.ArgTypes {
			if args[i].Type != want {
				ok = false
				break
			}
		}
		if ok {
			matches++
			ov := ov
			match = &ov
		}
	}
	switch matches {
	case 0:
		return Overload{}, videoerr.New(videoerr.CategoryParse, "scripting.resolve", fmt.Errorf("%w: %s", videoerr.ErrNoMatchingOverload, op.Name()))
	case 1:
		return *match, nil
	default:
		return Overload{}, videoerr.New(videoerr.CategoryParse, "scripting.resolve", fmt.Errorf("%w: %s", videoerr.ErrAmbiguousOverload, op.Name()))
	}
}
