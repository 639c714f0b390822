package wasmdec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructions(tb *testing.T) {
	code := Code{
		Block, 0x40,
		I32Const, 0x7f,
		BrTable, 0x02, 0x00, 0x01, 0x00,
		End,
		Loop, 0x7f,
		I64Const, 0xc0, 0xbb, 0x78,
		Drop,
		F32Const, 0x00, 0x00, 0x80, 0x3f,
		Drop,
		F64Const, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x3f,
		Drop,
		I32Load, 0x02, 0x10,
		End,
		CallIndir, 0x01, 0x00,
		SelectT, 0x01, 0x7f,
		MemorySize, 0x00,
		RefNull, 0x70,
		RefIsNull,
		FCExt, FCMemoryCopy, 0x00, 0x00,
		FCExt, FCMemoryInit, 0x01, 0x00,
		FCExt, 0x00,
		I64Extend32S,
		End,
	}

	var ops []Opcode
	var last int

	err := Instructions(code, func(pos int, op Opcode, instr []byte) error {
		assert.Equal(tb, Opcode(code[pos]), op)
		assert.Equal(tb, last, pos, "instructions must be contiguous")

		last = pos + len(instr)
		ops = append(ops, op)

		return nil
	})
	require.NoError(tb, err)

	assert.Equal(tb, len(code), last)
	assert.Equal(tb, []Opcode{
		Block, I32Const, BrTable, End,
		Loop, I64Const, Drop, F32Const, Drop, F64Const, Drop, I32Load, End,
		CallIndir, SelectT, MemorySize, RefNull, RefIsNull,
		FCExt, FCExt, FCExt, I64Extend32S, End,
	}, ops)
}

func TestExpr(tb *testing.T) {
	c := NewCursor([]byte{I32Const, 0x2a, End, Nop})

	x, err := c.Expr()
	require.NoError(tb, err)
	assert.Equal(tb, Code{I32Const, 0x2a, End}, x)
	assert.Equal(tb, 1, c.Len())

	c = NewCursor([]byte{If, 0x40, Nop, Else, Nop, End, GlobalGet, 0x00, End})

	x, err = c.Expr()
	require.NoError(tb, err)
	assert.Len(tb, x, 9)
	assert.Equal(tb, 0, c.Len())
}

func TestInstructionsErrors(tb *testing.T) {
	for _, tc := range []struct {
		name string
		code Code
		err  error
	}{
		{"unsupported", Code{Nop, 0xfd, 0x00, End}, ErrUnsupportedOpcode},
		{"unsupported_fc", Code{FCExt, 0x20, End}, ErrUnsupportedOpcode},
		{"no_end", Code{Nop, Nop}, ErrBufferEndReached},
		{"short_const", Code{F64Const, 0x00, 0x00}, ErrBufferEndReached},
		{"trailing", Code{End, Nop}, ErrBodySizeMismatch},
		{"bad_i32", Code{I32Const, 0x80, 0x80, 0x80, 0x80, 0x80, End}, ErrInvalidVarint32},
		{"bad_memory_size", Code{MemoryGrow, 0x02, End}, ErrInvalidVaruint1},
	} {
		tb.Run(tc.name, func(tb *testing.T) {
			err := Instructions(tc.code, nil)
			assert.Equal(tb, tc.err, err)
		})
	}
}

func TestInstructionsStop(tb *testing.T) {
	stop := ErrBodySizeMismatch
	n := 0

	err := Instructions(Code{Nop, Nop, Nop, End}, func(pos int, op Opcode, instr []byte) error {
		n++

		if n == 2 {
			return stop
		}

		return nil
	})

	assert.Equal(tb, stop, err)
	assert.Equal(tb, 2, n)
}

func TestOpcodeString(tb *testing.T) {
	assert.Equal(tb, "I32Add", Opcode(I32Add).String())
	assert.Equal(tb, "fd", Opcode(0xfd).String())
}
