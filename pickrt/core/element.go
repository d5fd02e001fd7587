package core

// ElementKind names what a local pick index counts.
type ElementKind uint8

const (
	ElementNone ElementKind = iota
	ElementPoint
	ElementFace
	ElementEdge
	ElementCell
)

func (k ElementKind) String() string {
	switch k {
	case ElementPoint:
		return "point"
	case ElementFace:
		return "face"
	case ElementEdge:
		return "edge"
	case ElementCell:
		return "cell"
	default:
		return "none"
	}
}

// Primitive is the closed set of shapes the pick pass knows how to draw.
// Each structure reports one, and the renderer selects the matching draw
// routine when it builds the pass.
type Primitive uint8

const (
	PrimitivePoint Primitive = iota
	PrimitiveLine
	PrimitiveTube
	PrimitiveTriangle
)

func (p Primitive) String() string {
	switch p {
	case PrimitivePoint:
		return "point"
	case PrimitiveLine:
		return "line"
	case PrimitiveTube:
		return "tube"
	case PrimitiveTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}
