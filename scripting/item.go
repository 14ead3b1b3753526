// Package scripting implements the domain-specific expression language
// spec.md §4.6-§4.9 describes: a parser that turns script source into a
// typed DAG of operation nodes, a compiler that orders the DAG into an
// execution plan, and an image processor that evaluates the plan per frame
// against the execution substrate using the tiling scheduler.
//
// The design is grounded on the teacher's plugin-style Registry
// (core/registry.go) generalized from codec Decoder/Encoder lookup to
// operation-by-name lookup, and on
// original_source/src/libcvpg/imageproc/scripting/image_processor.cpp for
// the compile/evaluate contract.
package scripting

import "github.com/skryldev/videoproc/core"

// ItemType tags the dynamic type an operation declares for its inputs and
// result, replacing the original implementation's runtime any-cast with a
// closed sum type resolved entirely at parse time.
type ItemType int

const (
	TypeInvalid ItemType = iota
	TypeInt
	TypeReal
	TypeString
	TypeGray
	TypeRGB
	TypeHistogram
	TypeList
)

func (t ItemType) String() string {
	switch t {
	case TypeInt:
		return "integer"
	case TypeReal:
		return "real"
	case TypeString:
		return "characters"
	case TypeGray:
		return "grayscale-8bit-image"
	case TypeRGB:
		return "rgb-8bit-image"
	case TypeHistogram:
		return "histogram"
	case TypeList:
		return "list"
	default:
		return "invalid"
	}
}

// Item is a typed value stored in a Context: exactly one field
// matching Type is populated. List items nest other Items rather than a
// second sum type, matching spec.md §3's "list-of-..." tag family.
type Item struct {
	Type ItemType
	Int  int64
	Real float64
	Str  string
	Gray *core.Image
	RGB  *core.Image
	Hist core.Histogram
	List []Item
}

// Image returns the item's Gray or RGB image, whichever Type selects, or
// nil if the item does not carry an image.
func (it Item) Image() *core.Image {
	switch it.Type {
	case TypeGray:
		return it.Gray
	case TypeRGB:
		return it.RGB
	default:
		return nil
	}
}
