package wasmdec

import "encoding/binary"

type (
	// Encoder appends binary format primitives to a buffer.
	Encoder struct{}
)

func (e *Encoder) Preamble(b []byte) []byte {
	b = e.Uint32(b, Magic)
	return e.Uint32(b, Version)
}

func (e *Encoder) Uint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func (e *Encoder) Varuint1(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}

	return append(b, 0)
}

func (e *Encoder) Varuint32(b []byte, v uint32) []byte {
	return e.Uint64(b, uint64(v))
}

func (e *Encoder) Varint7(b []byte, v int8) []byte {
	return append(b, byte(v)&0x7f)
}

func (e *Encoder) Varint32(b []byte, v int32) []byte {
	return e.Int64(b, int64(v))
}

func (e *Encoder) Varint64(b []byte, v int64) []byte {
	return e.Int64(b, v)
}

func (e *Encoder) Uint64(b []byte, v uint64) []byte {
	for {
		x := byte(v) & 0x7f
		v >>= 7

		if v != 0 {
			x |= 0x80
		}

		b = append(b, x)

		if x&0x80 == 0 {
			break
		}
	}

	return b
}

func (e *Encoder) Int64(b []byte, v int64) []byte {
	for {
		x := byte(v) & 0x7f
		s := byte(v) & 0x40
		v >>= 7

		if s == 0 && v != 0 || s != 0 && v != -1 {
			x |= 0x80
		}

		b = append(b, x)

		if x&0x80 == 0 {
			break
		}
	}

	return b
}

func (e *Encoder) Name(b []byte, v string) []byte {
	b = e.Varuint32(b, uint32(len(v)))
	return append(b, v...)
}

func (e *Encoder) Bytes(b []byte, v []byte) []byte {
	b = e.Varuint32(b, uint32(len(v)))
	return append(b, v...)
}

func (e *Encoder) ValueType(b []byte, tp ValueType) []byte {
	return e.Varint7(b, int8(tp))
}

func (e *Encoder) ResultType(b []byte, tp ...ValueType) []byte {
	b = e.Varuint32(b, uint32(len(tp)))

	for _, t := range tp {
		b = e.ValueType(b, t)
	}

	return b
}

func (e *Encoder) FuncType(b []byte, params, results ResultType) []byte {
	b = e.ValueType(b, FuncForm)
	b = e.ResultType(b, params...)
	b = e.ResultType(b, results...)

	return b
}

func (e *Encoder) Limits(b []byte, l Limits) []byte {
	if l.Max < 0 {
		b = e.Varuint1(b, false)
		return e.Varuint32(b, uint32(l.Min))
	}

	b = e.Varuint1(b, true)
	b = e.Varuint32(b, uint32(l.Min))
	b = e.Varuint32(b, uint32(l.Max))

	return b
}

func (e *Encoder) TableType(b []byte, t Table) []byte {
	b = e.ValueType(b, t.Type)
	return e.Limits(b, t.Limits)
}

func (e *Encoder) GlobalType(b []byte, g GlobalType) []byte {
	b = e.ValueType(b, g.Type)
	return e.Varuint1(b, g.Mutable)
}

func (e *Encoder) Section(b []byte, id SectionID, data []byte) []byte {
	b = append(b, byte(id))
	b = e.Varuint32(b, uint32(len(data)))

	return append(b, data...)
}

// Vector appends element count followed by the elements.
func (e *Encoder) Vector(b []byte, elems ...[]byte) []byte {
	b = e.Varuint32(b, uint32(len(elems)))

	for _, el := range elems {
		b = append(b, el...)
	}

	return b
}
