package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nikand.dev/go/wasmdec"
)

// testModule imports env.log and env.mem, exports add and mem.
func testModule() []byte {
	var e wasmdec.Encoder

	cat := func(p ...[]byte) []byte { return bytes.Join(p, nil) }

	body := e.Varuint32(nil, 0)
	body = append(body, wasmdec.LocalGet, 0, wasmdec.LocalGet, 1, wasmdec.I32Add, wasmdec.End)

	b := e.Preamble(nil)

	b = e.Section(b, wasmdec.CustomSection, cat(e.Name(nil, "meta"), []byte{1, 2, 3}))
	b = e.Section(b, wasmdec.TypeSection, e.Vector(nil,
		e.FuncType(nil, wasmdec.ResultType{wasmdec.I32, wasmdec.I32}, wasmdec.ResultType{wasmdec.I32}),
		e.FuncType(nil, wasmdec.ResultType{wasmdec.I32}, nil),
	))
	b = e.Section(b, wasmdec.ImportSection, e.Vector(nil,
		cat(e.Name(nil, "env"), e.Name(nil, "log"), []byte{byte(wasmdec.ExternalFunction)}, e.Varuint32(nil, 1)),
		cat(e.Name(nil, "env"), e.Name(nil, "mem"), []byte{byte(wasmdec.ExternalMemory)}, e.Limits(nil, wasmdec.Limits{Min: 1, Max: -1})),
	))
	b = e.Section(b, wasmdec.FunctionSection, e.Vector(nil, e.Varuint32(nil, 0)))
	b = e.Section(b, wasmdec.ExportSection, e.Vector(nil,
		cat(e.Name(nil, "add"), []byte{byte(wasmdec.ExternalFunction)}, e.Varuint32(nil, 1)),
		cat(e.Name(nil, "mem"), []byte{byte(wasmdec.ExternalMemory)}, e.Varuint32(nil, 0)),
	))
	b = e.Section(b, wasmdec.CodeSection, e.Vector(nil, e.Bytes(nil, body)))

	return b
}

func TestCompile(tb *testing.T) {
	ctx := context.Background()

	e := New(ctx)
	defer func() {
		assert.NoError(tb, e.Close(ctx))
	}()

	bin := testModule()

	m, err := wasmdec.Decode(bin)
	require.NoError(tb, err)

	c, err := e.Compile(ctx, bin, m)
	require.NoError(tb, err)

	assert.Equal(tb, m, c.Module)
	assert.Len(tb, c.ExportedFunctions(), 1)
	assert.NoError(tb, c.Close(ctx))
}

func TestCompileMismatch(tb *testing.T) {
	ctx := context.Background()

	e := New(ctx)
	defer func() {
		assert.NoError(tb, e.Close(ctx))
	}()

	bin := testModule()

	for _, tc := range []struct {
		name   string
		modify func(m *wasmdec.Module)
	}{
		{"export_index", func(m *wasmdec.Module) { m.ExportedFunctions["add"] = 0 }},
		{"export_missing", func(m *wasmdec.Module) { m.ExportedFunctions["sub"] = 1 }},
		{"signature", func(m *wasmdec.Module) { m.Signatures[0].Results = nil }},
		{"import_name", func(m *wasmdec.Module) { m.Imports[0].Name = "print" }},
		{"memory", func(m *wasmdec.Module) { m.Imports[1].Memory.Max = 2 }},
		{"custom", func(m *wasmdec.Module) { m.Custom = nil }},
	} {
		tb.Run(tc.name, func(tb *testing.T) {
			m, err := wasmdec.Decode(bin)
			require.NoError(tb, err)

			tc.modify(m)

			c, err := e.Compile(ctx, bin, m)
			assert.ErrorIs(tb, err, ErrMismatch)
			assert.Nil(tb, c)
		})
	}
}

func TestCompileInvalid(tb *testing.T) {
	ctx := context.Background()

	e := New(ctx)
	defer func() {
		assert.NoError(tb, e.Close(ctx))
	}()

	bin := testModule()
	bin = bin[:len(bin)-1]

	c, err := e.Compile(ctx, bin, nil)
	assert.Error(tb, err)
	assert.Nil(tb, c)
}
