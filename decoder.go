package wasmdec

import (
	"tlog.app/go/tlog"
)

type (
	// Decoder holds decoding options.
	// Zero value is ready to use.
	Decoder struct {
		// SkipCustom drops custom section payloads.
		SkipCustom bool

		// CheckCode walks every function body instruction by instruction
		// instead of keeping it as raw bytes.
		CheckCode bool
	}

	// Parser decodes one module.
	// It's single-use: after an error Pos points at the failure
	// and the Parser should be discarded.
	Parser struct {
		Cursor

		cfg Decoder
		m   *Module

		seen [sectionNext]bool
	}

	sectionDecoder func(p *Parser, c *Cursor) error
)

var sectionDecoders = [sectionNext]sectionDecoder{
	CustomSection:    (*Parser).customSection,
	TypeSection:      (*Parser).typeSection,
	ImportSection:    (*Parser).importSection,
	FunctionSection:  (*Parser).functionSection,
	TableSection:     (*Parser).tableSection,
	MemorySection:    (*Parser).memorySection,
	GlobalSection:    (*Parser).globalSection,
	ExportSection:    (*Parser).exportSection,
	StartSection:     (*Parser).startSection,
	ElementSection:   (*Parser).elementSection,
	CodeSection:      (*Parser).codeSection,
	DataSection:      (*Parser).dataSection,
	DataCountSection: (*Parser).dataCountSection,
}

// Decode decodes a module with default options.
func Decode(b []byte) (*Module, error) {
	var d Decoder

	return d.Module(b)
}

func (d *Decoder) Module(b []byte) (*Module, error) {
	return d.Parser(b).Module()
}

func (d *Decoder) Parser(b []byte) *Parser {
	return &Parser{
		Cursor: NewCursor(b),
		cfg:    *d,
		m:      newModule(),
	}
}

func NewParser(b []byte) *Parser {
	var d Decoder

	return d.Parser(b)
}

// Module decodes the whole buffer.
// It returns either a complete module or one of the Error values.
func (p *Parser) Module() (*Module, error) {
	err := p.Preamble()
	if err != nil {
		return nil, err
	}

	err = p.Body()
	if err != nil {
		return nil, err
	}

	return p.m, nil
}

func (p *Parser) Preamble() error {
	magic, err := p.Uint32()
	if err != nil {
		return err
	}

	if magic != Magic {
		return ErrInvalidMagicNumber
	}

	version, err := p.Uint32()
	if err != nil {
		return err
	}

	if version != Version {
		return ErrInvalidVersionNumber
	}

	p.m.Version = version

	return nil
}

// Body decodes sections until the end of the buffer.
// Unknown sections are skipped.
func (p *Parser) Body() error {
	for p.Len() != 0 {
		st := p.Pos()

		id, err := p.Varuint7()
		if err != nil {
			return err
		}

		size, err := p.Varuint32()
		if err != nil {
			return err
		}

		sec, err := p.Limit(int(size))
		if err != nil {
			return err
		}

		err = p.section(SectionID(id), &sec)
		if err != nil {
			p.i = sec.i

			return err
		}

		if sec.Len() != 0 {
			tlog.V("section").Printw("section not fully read", "id", SectionID(id), "pos", tlog.NextAsHex, st, "size", size, "unread", sec.Len())
		}

		err = p.Skip(int(size))
		if err != nil {
			return err
		}
	}

	if len(p.m.Functions) != len(p.m.Code) {
		return ErrFunctionCodeMismatch
	}

	return nil
}

func (p *Parser) section(id SectionID, c *Cursor) error {
	p.m.Sections = append(p.m.Sections, id)

	if id >= sectionNext {
		tlog.V("section").Printw("skip unknown section", "id", id, "pos", tlog.NextAsHex, c.Pos(), "size", c.Len())

		return nil
	}

	if id != CustomSection && p.seen[id] {
		return ErrDuplicateSection
	}

	p.seen[id] = true

	return sectionDecoders[id](p, c)
}
