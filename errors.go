package wasmdec

// Error is a decode failure. It carries no payload:
// the variant says what rule the input broke,
// Parser.Pos says where.
type Error uint8

const (
	_ Error = iota

	ErrBufferEndReached
	ErrInvalidVaruint1
	ErrInvalidVaruint7
	ErrInvalidVarint7
	ErrInvalidVaruint32
	ErrInvalidVarint32
	ErrInvalidVarint64
	ErrInvalidMagicNumber
	ErrInvalidVersionNumber

	ErrInvalidName
	ErrInvalidValueType
	ErrInvalidTypeForm
	ErrInvalidExternalKind
	ErrInvalidElementFlags
	ErrInvalidDataFlags
	ErrUnsupportedOpcode
	ErrDuplicateSection
	ErrFunctionCodeMismatch
	ErrBodySizeMismatch

	errNext
)

var errText = [...]string{
	ErrBufferEndReached:     "buffer end reached",
	ErrInvalidVaruint1:      "invalid varuint1",
	ErrInvalidVaruint7:      "invalid varuint7",
	ErrInvalidVarint7:       "invalid varint7",
	ErrInvalidVaruint32:     "invalid varuint32",
	ErrInvalidVarint32:      "invalid varint32",
	ErrInvalidVarint64:      "invalid varint64",
	ErrInvalidMagicNumber:   "invalid magic number",
	ErrInvalidVersionNumber: "invalid version number",

	ErrInvalidName:          "invalid utf-8 name",
	ErrInvalidValueType:     "invalid value type",
	ErrInvalidTypeForm:      "invalid type form",
	ErrInvalidExternalKind:  "invalid external kind",
	ErrInvalidElementFlags:  "invalid element segment flags",
	ErrInvalidDataFlags:     "invalid data segment flags",
	ErrUnsupportedOpcode:    "unsupported opcode",
	ErrDuplicateSection:     "duplicate section",
	ErrFunctionCodeMismatch: "function and code section sizes mismatch",
	ErrBodySizeMismatch:     "function body size mismatch",

	errNext: "",
}

func (e Error) Error() string {
	if e < errNext && errText[e] != "" {
		return errText[e]
	}

	return "unknown decode error"
}
