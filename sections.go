package wasmdec

import "tlog.app/go/tlog"

func (p *Parser) customSection(c *Cursor) error {
	name, err := c.Name()
	if err != nil {
		return err
	}

	data, err := c.ReadBytes(c.Len())
	if err != nil {
		return err
	}

	if p.cfg.SkipCustom {
		tlog.V("section").Printw("skip custom section", "name", name, "size", len(data))
		return nil
	}

	p.m.Custom = append(p.m.Custom, Custom{Name: name, Data: data})

	return nil
}

func (p *Parser) typeSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Signatures = make([]FuncType, 0, l)

	for n := 0; n < l; n++ {
		fn, err := c.FuncType()
		if err != nil {
			return err
		}

		p.m.Signatures = append(p.m.Signatures, fn)
	}

	return nil
}

func (p *Parser) importSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Imports = make([]Import, 0, l)
	p.m.ImportedFunctions = make(map[ImportName]Index)

	funcs := Index(0)

	for n := 0; n < l; n++ {
		im, err := c.Import()
		if err != nil {
			return err
		}

		if im.Kind == ExternalFunction {
			p.m.ImportedFunctions[im.ImportName] = funcs
			funcs++
		}

		p.m.Imports = append(p.m.Imports, im)
	}

	return nil
}

func (p *Parser) functionSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Functions = make([]Index, 0, l)

	for n := 0; n < l; n++ {
		x, err := c.Varuint32()
		if err != nil {
			return err
		}

		p.m.Functions = append(p.m.Functions, Index(x))
	}

	return nil
}

func (p *Parser) tableSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Tables = make([]Table, 0, l)

	for n := 0; n < l; n++ {
		t, err := c.TableType()
		if err != nil {
			return err
		}

		p.m.Tables = append(p.m.Tables, t)
	}

	return nil
}

func (p *Parser) memorySection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Memories = make([]Limits, 0, l)

	for n := 0; n < l; n++ {
		x, err := c.Limits()
		if err != nil {
			return err
		}

		p.m.Memories = append(p.m.Memories, x)
	}

	return nil
}

func (p *Parser) globalSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Globals = make([]Global, 0, l)

	for n := 0; n < l; n++ {
		var g Global

		g.GlobalType, err = c.GlobalType()
		if err != nil {
			return err
		}

		g.Init, err = c.Expr()
		if err != nil {
			return err
		}

		p.m.Globals = append(p.m.Globals, g)
	}

	return nil
}

func (p *Parser) exportSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Exports = make([]Export, 0, l)
	p.m.ExportedFunctions = make(map[string]Index)

	for n := 0; n < l; n++ {
		var ex Export

		ex.Name, err = c.Name()
		if err != nil {
			return err
		}

		ex.Kind, err = c.externalKind()
		if err != nil {
			return err
		}

		x, err := c.Varuint32()
		if err != nil {
			return err
		}

		ex.Index = Index(x)

		if ex.Kind == ExternalFunction {
			p.m.ExportedFunctions[ex.Name] = ex.Index
		}

		p.m.Exports = append(p.m.Exports, ex)
	}

	return nil
}

func (p *Parser) startSection(c *Cursor) error {
	x, err := c.Varuint32()
	if err != nil {
		return err
	}

	p.m.Start = Index(x)

	return nil
}

func (p *Parser) elementSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Elements = make([]Element, 0, l)

	for n := 0; n < l; n++ {
		el, err := c.Element()
		if err != nil {
			return err
		}

		p.m.Elements = append(p.m.Elements, el)
	}

	return nil
}

func (p *Parser) codeSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Code = make([]FuncBody, 0, l)

	for n := 0; n < l; n++ {
		size, err := c.Varuint32()
		if err != nil {
			return err
		}

		body, err := c.Limit(int(size))
		if err != nil {
			return err
		}

		fb, err := p.funcBody(&body)
		if err != nil {
			c.i = body.i

			return err
		}

		p.m.Code = append(p.m.Code, fb)

		err = c.Skip(int(size))
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) funcBody(c *Cursor) (fb FuncBody, err error) {
	l, err := c.vector()
	if err != nil {
		return fb, err
	}

	if l != 0 {
		fb.Locals = make([]LocalEntry, 0, l)
	}

	for n := 0; n < l; n++ {
		cnt, err := c.Varuint32()
		if err != nil {
			return fb, err
		}

		tp, err := c.ValueType()
		if err != nil {
			return fb, err
		}

		fb.Locals = append(fb.Locals, LocalEntry{Count: cnt, Type: tp})
	}

	if !p.cfg.CheckCode {
		fb.Expr, err = c.ReadBytes(c.Len())

		return fb, err
	}

	fb.Expr, err = c.Expr()
	if err != nil {
		return fb, err
	}

	if c.Len() != 0 {
		return fb, ErrBodySizeMismatch
	}

	return fb, nil
}

func (p *Parser) dataSection(c *Cursor) error {
	l, err := c.vector()
	if err != nil {
		return err
	}

	p.m.Data = make([]Data, 0, l)

	for n := 0; n < l; n++ {
		d, err := c.Data()
		if err != nil {
			return err
		}

		p.m.Data = append(p.m.Data, d)
	}

	return nil
}

func (p *Parser) dataCountSection(c *Cursor) error {
	x, err := c.Varuint32()
	if err != nil {
		return err
	}

	p.m.DataCount = int(x)

	return nil
}

// FuncType reads a function signature.
func (c *Cursor) FuncType() (fn FuncType, err error) {
	st := c.i

	form, err := c.Varint7()
	if err != nil {
		return fn, err
	}

	if ValueType(form) != FuncForm {
		return fn, ErrInvalidTypeForm
	}

	fn.Params, err = c.ResultType()
	if err != nil {
		return fn, err
	}

	fn.Results, err = c.ResultType()
	if err != nil {
		return fn, err
	}

	fn.Raw = c.b[st:c.i:c.i]

	return fn, nil
}

func (c *Cursor) ResultType() (tp ResultType, err error) {
	l, err := c.vector()
	if err != nil {
		return nil, err
	}

	if l == 0 {
		return nil, nil
	}

	tp = make(ResultType, l)

	for j := range tp {
		tp[j], err = c.ValueType()
		if err != nil {
			return nil, err
		}
	}

	return tp, nil
}

func (c *Cursor) ValueType() (ValueType, error) {
	x, err := c.Varint7()
	if err != nil {
		return 0, err
	}

	tp := ValueType(x)
	if !tp.IsValue() {
		return 0, ErrInvalidValueType
	}

	return tp, nil
}

func (c *Cursor) RefType() (ValueType, error) {
	tp, err := c.ValueType()
	if err != nil {
		return 0, err
	}

	if !tp.IsRef() {
		return 0, ErrInvalidValueType
	}

	return tp, nil
}

func (c *Cursor) Limits() (l Limits, err error) {
	hasMax, err := c.Varuint1()
	if err != nil {
		return l, err
	}

	lo, err := c.Varuint32()
	if err != nil {
		return l, err
	}

	l.Min, l.Max = int64(lo), -1

	if !hasMax {
		return l, nil
	}

	hi, err := c.Varuint32()
	if err != nil {
		return l, err
	}

	l.Max = int64(hi)

	return l, nil
}

func (c *Cursor) TableType() (t Table, err error) {
	t.Type, err = c.RefType()
	if err != nil {
		return t, err
	}

	t.Limits, err = c.Limits()

	return t, err
}

func (c *Cursor) GlobalType() (g GlobalType, err error) {
	g.Type, err = c.ValueType()
	if err != nil {
		return g, err
	}

	g.Mutable, err = c.Varuint1()

	return g, err
}

func (c *Cursor) Import() (im Import, err error) {
	im.Module, err = c.Name()
	if err != nil {
		return im, err
	}

	im.Name, err = c.Name()
	if err != nil {
		return im, err
	}

	im.Kind, err = c.externalKind()
	if err != nil {
		return im, err
	}

	switch im.Kind {
	case ExternalFunction:
		var x uint32

		x, err = c.Varuint32()
		im.Type = Index(x)
	case ExternalTable:
		im.Table, err = c.TableType()
	case ExternalMemory:
		im.Memory, err = c.Limits()
	case ExternalGlobal:
		im.Global, err = c.GlobalType()
	}

	return im, err
}

func (c *Cursor) externalKind() (ExternalKind, error) {
	x, err := c.Uint8()
	if err != nil {
		return 0, err
	}

	if x > byte(ExternalGlobal) {
		return 0, ErrInvalidExternalKind
	}

	return ExternalKind(x), nil
}

// Element reads an element segment.
// Only function index forms are supported, that is flags 0 to 3.
func (c *Cursor) Element() (el Element, err error) {
	el.Flags, err = c.Varuint32()
	if err != nil {
		return el, err
	}

	if el.Flags > 3 {
		return el, ErrInvalidElementFlags
	}

	if el.Flags == 2 {
		x, err := c.Varuint32()
		if err != nil {
			return el, err
		}

		el.Table = Index(x)
	}

	if el.Flags&1 == 0 { // active
		el.Offset, err = c.Expr()
		if err != nil {
			return el, err
		}
	}

	if el.Flags != 0 {
		kind, err := c.Uint8()
		if err != nil {
			return el, err
		}

		if kind != 0 { // funcref
			return el, ErrInvalidElementFlags
		}
	}

	l, err := c.vector()
	if err != nil {
		return el, err
	}

	el.Funcs = make([]Index, 0, l)

	for j := 0; j < l; j++ {
		x, err := c.Varuint32()
		if err != nil {
			return el, err
		}

		el.Funcs = append(el.Funcs, Index(x))
	}

	return el, nil
}

func (c *Cursor) Data() (d Data, err error) {
	d.Flags, err = c.Varuint32()
	if err != nil {
		return d, err
	}

	switch d.Flags {
	case 0, 1:
	case 2:
		x, err := c.Varuint32()
		if err != nil {
			return d, err
		}

		d.Memory = Index(x)
	default:
		return d, ErrInvalidDataFlags
	}

	if d.Flags != 1 {
		d.Offset, err = c.Expr()
		if err != nil {
			return d, err
		}
	}

	l, err := c.Varuint32()
	if err != nil {
		return d, err
	}

	d.Init, err = c.ReadBytes(int(l))

	return d, err
}
