package wasmdec

import (
	"io"
	"os"

	"tlog.app/go/errors"
)

type (
	// Loader reads module binaries into memory.
	// Decoding time is linear in the input size,
	// so MaxSize bounds it as well.
	Loader struct {
		MaxSize int64 // 0 means no limit
	}
)

var ErrTooLarge = errors.New("module too large")

func (l Loader) ReadAll(r io.Reader) ([]byte, error) {
	if l.MaxSize <= 0 {
		return io.ReadAll(r)
	}

	b, err := io.ReadAll(io.LimitReader(r, l.MaxSize+1))
	if err != nil {
		return nil, err
	}

	if int64(len(b)) > l.MaxSize {
		return nil, errors.Wrap(ErrTooLarge, "limit %d", l.MaxSize)
	}

	return b, nil
}

func (l Loader) ReadFile(name string) (_ []byte, err error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	defer func() {
		e := f.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close")
		}
	}()

	return l.ReadAll(f)
}

// File reads and decodes a module.
// Decode errors are wrapped with the failure offset,
// errors.Is still matches the Error value.
func (d *Decoder) File(l Loader, name string) (*Module, error) {
	b, err := l.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	p := d.Parser(b)

	m, err := p.Module()
	if err != nil {
		return nil, errors.Wrap(err, "decode: at pos 0x%x", p.Pos())
	}

	return m, nil
}
