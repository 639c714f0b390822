package wasmdec

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderReadAll(tb *testing.T) {
	bin := fullModule()

	b, err := Loader{}.ReadAll(bytes.NewReader(bin))
	require.NoError(tb, err)
	assert.Equal(tb, bin, b)

	b, err = Loader{MaxSize: int64(len(bin))}.ReadAll(bytes.NewReader(bin))
	require.NoError(tb, err)
	assert.Equal(tb, bin, b)

	_, err = Loader{MaxSize: int64(len(bin)) - 1}.ReadAll(bytes.NewReader(bin))
	assert.ErrorIs(tb, err, ErrTooLarge)
}

func TestDecoderFile(tb *testing.T) {
	dir := tb.TempDir()

	good := filepath.Join(dir, "good.wasm")
	bad := filepath.Join(dir, "bad.wasm")

	require.NoError(tb, os.WriteFile(good, fullModule(), 0o644))
	require.NoError(tb, os.WriteFile(bad, []byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}, 0o644))

	var d Decoder

	m, err := d.File(Loader{}, good)
	require.NoError(tb, err)
	assert.Equal(tb, map[string]Index{"add": 1}, m.ExportedFunctions)

	_, err = d.File(Loader{}, bad)
	assert.ErrorIs(tb, err, ErrInvalidVersionNumber)
	assert.Contains(tb, err.Error(), "at pos 0x8")

	_, err = d.File(Loader{MaxSize: 4}, good)
	assert.ErrorIs(tb, err, ErrTooLarge)

	_, err = d.File(Loader{}, filepath.Join(dir, "missing.wasm"))
	assert.ErrorIs(tb, err, os.ErrNotExist)
}
