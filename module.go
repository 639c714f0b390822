package wasmdec

import (
	"fmt"

	"tlog.app/go/tlog/tlwire"
)

type (
	Module struct {
		Version uint32

		Signatures []FuncType
		Imports    []Import
		Functions  []Index
		Tables     []Table
		Memories   []Limits
		Globals    []Global
		Exports    []Export
		Start      Index
		Elements   []Element
		Code       []FuncBody
		Data       []Data
		DataCount  int

		Custom []Custom

		// Sections in the order they appear in the binary.
		Sections SectionList

		ImportedFunctions map[ImportName]Index
		ExportedFunctions map[string]Index
	}

	SectionID uint8

	SectionList []SectionID

	Index int

	ValueType int8

	ExternalKind uint8

	Code []byte

	ResultType []ValueType

	FuncType struct {
		Params  ResultType
		Results ResultType

		// Raw is the encoded signature including the form byte.
		Raw []byte
	}

	ImportName struct {
		Module, Name string
	}

	Import struct {
		ImportName

		Kind ExternalKind

		// Kind specific description.
		Type   Index      // ExternalFunction
		Table  Table      // ExternalTable
		Memory Limits     // ExternalMemory
		Global GlobalType // ExternalGlobal
	}

	Export struct {
		Name  string
		Kind  ExternalKind
		Index Index
	}

	Table struct {
		Type   ValueType
		Limits Limits
	}

	// Limits with Max == -1 have no maximum.
	Limits struct {
		Min, Max int64
	}

	GlobalType struct {
		Type    ValueType
		Mutable bool
	}

	Global struct {
		GlobalType
		Init Code
	}

	Element struct {
		Flags uint32

		Table  Index
		Offset Code // nil for passive and declarative segments

		Funcs []Index
	}

	Data struct {
		Flags uint32

		Memory Index
		Offset Code // nil for passive segments

		Init []byte
	}

	Custom struct {
		Name string
		Data []byte
	}

	LocalEntry struct {
		Count uint32
		Type  ValueType
	}

	FuncBody struct {
		Locals []LocalEntry
		Expr   Code
	}
)

// Preamble values.
const (
	Magic   = 0x6d736100
	Version = 0x1
)

// Section ids.
const (
	CustomSection SectionID = iota
	TypeSection
	ImportSection
	FunctionSection
	TableSection
	MemorySection
	GlobalSection
	ExportSection
	StartSection
	ElementSection
	CodeSection
	DataSection
	DataCountSection

	sectionNext
)

// Value types as they are read by Varint7.
const (
	I32  ValueType = -0x01
	I64  ValueType = -0x02
	F32  ValueType = -0x03
	F64  ValueType = -0x04
	V128 ValueType = -0x05

	FuncRef   ValueType = -0x10
	ExternRef ValueType = -0x11

	FuncForm   ValueType = -0x20
	EmptyBlock ValueType = -0x40
)

// External kinds.
const (
	ExternalFunction ExternalKind = iota
	ExternalTable
	ExternalMemory
	ExternalGlobal
)

func newModule() *Module {
	return &Module{
		Version:   Version,
		Start:     -1,
		DataCount: -1,
	}
}

// Byte is the single byte encoding of the type.
func (t ValueType) Byte() byte {
	return byte(t) & 0x7f
}

func (t ValueType) IsNum() bool {
	return t >= V128 && t <= I32
}

func (t ValueType) IsRef() bool {
	return t == FuncRef || t == ExternRef
}

func (t ValueType) IsValue() bool {
	return t.IsNum() || t.IsRef()
}

func (t ValueType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case V128:
		return "v128"
	case FuncRef:
		return "funcref"
	case ExternRef:
		return "externref"
	case FuncForm:
		return "func"
	case EmptyBlock:
		return "empty"
	}

	return fmt.Sprintf("type(0x%02x)", t.Byte())
}

func (k ExternalKind) String() string {
	switch k {
	case ExternalFunction:
		return "func"
	case ExternalTable:
		return "table"
	case ExternalMemory:
		return "memory"
	case ExternalGlobal:
		return "global"
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

var sectionNames = [...]string{
	CustomSection:    "custom",
	TypeSection:      "type",
	ImportSection:    "import",
	FunctionSection:  "function",
	TableSection:     "table",
	MemorySection:    "memory",
	GlobalSection:    "global",
	ExportSection:    "export",
	StartSection:     "start",
	ElementSection:   "element",
	CodeSection:      "code",
	DataSection:      "data",
	DataCountSection: "datacount",
}

func (id SectionID) String() string {
	if id < sectionNext {
		return sectionNames[id]
	}

	return fmt.Sprintf("section(%d)", int(id))
}

// FuncType returns the signature of function idx
// counting imported functions first.
func (m *Module) FuncType(idx Index) (FuncType, bool) {
	n := Index(0)

	for _, im := range m.Imports {
		if im.Kind != ExternalFunction {
			continue
		}

		if n == idx {
			return m.signature(im.Type)
		}

		n++
	}

	idx -= n

	if idx < 0 || int(idx) >= len(m.Functions) {
		return FuncType{}, false
	}

	return m.signature(m.Functions[idx])
}

func (m *Module) signature(tp Index) (FuncType, bool) {
	if tp < 0 || int(tp) >= len(m.Signatures) {
		return FuncType{}, false
	}

	return m.Signatures[tp], true
}

func (l Limits) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if l.Max < 0 {
		b = e.AppendArray(b, 1)
		return e.AppendInt(b, int(l.Min))
	}

	b = e.AppendArray(b, 2)
	b = e.AppendInt(b, int(l.Min))

	return e.AppendInt(b, int(l.Max))
}

func (c Code) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendSemantic(b, tlwire.Hex)

	return e.AppendBytes(b, c)
}

func (tp ResultType) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendArray(b, len(tp))

	for _, t := range tp {
		b = e.AppendString(b, t.String())
	}

	return b
}

func (ids SectionList) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendArray(b, len(ids))

	for _, id := range ids {
		b = e.AppendString(b, id.String())
	}

	return b
}
