package memory

import (
	perr "patito/internal/errors"
)

// Segment is the storage class encoded in a virtual address.
type Segment int

const (
	SegmentGlobal Segment = iota
	SegmentLocal
	SegmentTemp
	SegmentConstant
)

func (s Segment) String() string {
	switch s {
	case SegmentGlobal:
		return "GLOBAL"
	case SegmentLocal:
		return "LOCAL"
	case SegmentTemp:
		return "TEMP"
	case SegmentConstant:
		return "CONSTANT"
	}
	return "UNKNOWN"
}

// Kind is the value type encoded in a virtual address.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindBool:
		return "BOOL"
	case KindString:
		return "STRING"
	}
	return "UNKNOWN"
}

// Segment bases. Each (segment, kind) pair owns a range of SegmentSize
// addresses starting at its base.
const (
	SegmentSize = 1000

	GlobalIntStart   = 1000
	GlobalFloatStart = 2000
	GlobalBoolStart  = 3000

	LocalIntStart   = 4000
	LocalFloatStart = 5000
	LocalBoolStart  = 6000

	TempIntStart   = 7000
	TempFloatStart = 8000
	TempBoolStart  = 9000

	ConstIntStart    = 10000
	ConstFloatStart  = 11000
	ConstStringStart = 12000

	addressSpaceEnd = ConstStringStart + SegmentSize
)

var segmentBases = []struct {
	start   int
	segment Segment
	kind    Kind
}{
	{GlobalIntStart, SegmentGlobal, KindInt},
	{GlobalFloatStart, SegmentGlobal, KindFloat},
	{GlobalBoolStart, SegmentGlobal, KindBool},
	{LocalIntStart, SegmentLocal, KindInt},
	{LocalFloatStart, SegmentLocal, KindFloat},
	{LocalBoolStart, SegmentLocal, KindBool},
	{TempIntStart, SegmentTemp, KindInt},
	{TempFloatStart, SegmentTemp, KindFloat},
	{TempBoolStart, SegmentTemp, KindBool},
	{ConstIntStart, SegmentConstant, KindInt},
	{ConstFloatStart, SegmentConstant, KindFloat},
	{ConstStringStart, SegmentConstant, KindString},
}

// Decode splits a virtual address into its segment, kind, and offset within
// the (segment, kind) range.
func Decode(address int) (Segment, Kind, int, error) {
	if address < GlobalIntStart || address >= addressSpaceEnd {
		return 0, 0, 0, perr.NewRuntime(perr.UninitializedRead,
			"virtual address %d is outside every segment", address)
	}
	for i := len(segmentBases) - 1; i >= 0; i-- {
		base := segmentBases[i]
		if address >= base.start {
			return base.segment, base.kind, address - base.start, nil
		}
	}
	return 0, 0, 0, perr.NewRuntime(perr.UninitializedRead,
		"virtual address %d is outside every segment", address)
}

// InRange reports whether the address belongs to a declared segment range.
func InRange(address int) bool {
	return address >= GlobalIntStart && address < addressSpaceEnd
}
