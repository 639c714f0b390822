package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"nikand.dev/go/wasmdec"
)

type (
	// Engine hands decoded modules over to wazero.
	Engine struct {
		rt wazero.Runtime
	}

	// Compiled is a module accepted by both the decoder and the engine.
	Compiled struct {
		wazero.CompiledModule

		Module *wasmdec.Module
	}
)

var ErrMismatch = errors.New("decoder and engine disagree")

func New(ctx context.Context) *Engine {
	cfg := wazero.NewRuntimeConfig().
		WithCustomSections(true)

	return &Engine{
		rt: wazero.NewRuntimeWithConfig(ctx, cfg),
	}
}

func (e *Engine) Close(ctx context.Context) error {
	return e.rt.Close(ctx)
}

// Compile compiles bin and checks the engine sees the same
// imports, exports and custom sections as the decoded module m.
func (e *Engine) Compile(ctx context.Context, bin []byte, m *wasmdec.Module) (c *Compiled, err error) {
	cm, err := e.rt.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Wrap(err, "compile")
	}

	defer func() {
		if err == nil {
			return
		}

		_ = cm.Close(ctx)
	}()

	err = Compare(m, cm)
	if err != nil {
		return nil, err
	}

	tlog.V("engine").Printw("compiled", "exports", len(cm.ExportedFunctions()), "imports", len(cm.ImportedFunctions()))

	return &Compiled{CompiledModule: cm, Module: m}, nil
}

func Compare(m *wasmdec.Module, cm wazero.CompiledModule) error {
	err := compareImports(m, cm.ImportedFunctions())
	if err != nil {
		return errors.Wrap(err, "imported functions")
	}

	err = compareExports(m, cm.ExportedFunctions())
	if err != nil {
		return errors.Wrap(err, "exported functions")
	}

	err = compareMemories(m, cm.ExportedMemories())
	if err != nil {
		return errors.Wrap(err, "exported memories")
	}

	err = compareCustom(m, cm.CustomSections())
	if err != nil {
		return errors.Wrap(err, "custom sections")
	}

	return nil
}

func compareImports(m *wasmdec.Module, defs []api.FunctionDefinition) error {
	n := 0

	for _, im := range m.Imports {
		if im.Kind != wasmdec.ExternalFunction {
			continue
		}

		if n >= len(defs) {
			return errors.Wrap(ErrMismatch, "%v.%v: missing", im.Module, im.Name)
		}

		mod, name, _ := defs[n].Import()
		if mod != im.Module || name != im.Name {
			return errors.Wrap(ErrMismatch, "import %d: %v.%v vs %v.%v", n, im.Module, im.Name, mod, name)
		}

		err := compareSignature(m, wasmdec.Index(n), defs[n])
		if err != nil {
			return errors.Wrap(err, "%v.%v", im.Module, im.Name)
		}

		n++
	}

	if n != len(defs) {
		return errors.Wrap(ErrMismatch, "count %d vs %d", n, len(defs))
	}

	return nil
}

func compareExports(m *wasmdec.Module, defs map[string]api.FunctionDefinition) error {
	if len(m.ExportedFunctions) != len(defs) {
		return errors.Wrap(ErrMismatch, "count %d vs %d", len(m.ExportedFunctions), len(defs))
	}

	for name, idx := range m.ExportedFunctions {
		def, ok := defs[name]
		if !ok {
			return errors.Wrap(ErrMismatch, "%q: missing", name)
		}

		if def.Index() != uint32(idx) {
			return errors.Wrap(ErrMismatch, "%q: index %d vs %d", name, idx, def.Index())
		}

		err := compareSignature(m, idx, def)
		if err != nil {
			return errors.Wrap(err, "%q", name)
		}
	}

	return nil
}

func compareSignature(m *wasmdec.Module, idx wasmdec.Index, def api.FunctionDefinition) error {
	ft, ok := m.FuncType(idx)
	if !ok {
		return errors.Wrap(ErrMismatch, "func %d: no signature", idx)
	}

	if !sameTypes(ft.Params, def.ParamTypes()) {
		return errors.Wrap(ErrMismatch, "params %v vs %v", ft.Params, typeNames(def.ParamTypes()))
	}

	if !sameTypes(ft.Results, def.ResultTypes()) {
		return errors.Wrap(ErrMismatch, "results %v vs %v", ft.Results, typeNames(def.ResultTypes()))
	}

	return nil
}

func compareMemories(m *wasmdec.Module, defs map[string]api.MemoryDefinition) error {
	var mems []wasmdec.Limits

	for _, im := range m.Imports {
		if im.Kind == wasmdec.ExternalMemory {
			mems = append(mems, im.Memory)
		}
	}

	mems = append(mems, m.Memories...)

	for _, ex := range m.Exports {
		if ex.Kind != wasmdec.ExternalMemory {
			continue
		}

		def, ok := defs[ex.Name]
		if !ok {
			return errors.Wrap(ErrMismatch, "%q: missing", ex.Name)
		}

		if ex.Index < 0 || int(ex.Index) >= len(mems) {
			return errors.Wrap(ErrMismatch, "%q: memory %d out of range", ex.Name, ex.Index)
		}

		l := mems[ex.Index]
		hi, hasMax := def.Max()

		if int64(def.Min()) != l.Min || hasMax != (l.Max >= 0) || hasMax && int64(hi) != l.Max {
			return errors.Wrap(ErrMismatch, "%q: limits %v vs %d..%d", ex.Name, l, def.Min(), hi)
		}
	}

	return nil
}

func compareCustom(m *wasmdec.Module, secs []api.CustomSection) error {
	var names []string

	for _, c := range m.Custom {
		if c.Name != "name" { // wazero keeps it apart
			names = append(names, c.Name)
		}
	}

	if len(names) != len(secs) {
		return errors.Wrap(ErrMismatch, "count %d vs %d", len(names), len(secs))
	}

	for i, s := range secs {
		if s.Name() != names[i] {
			return errors.Wrap(ErrMismatch, "section %d: %q vs %q", i, names[i], s.Name())
		}
	}

	return nil
}

func sameTypes(tp wasmdec.ResultType, vts []api.ValueType) bool {
	if len(tp) != len(vts) {
		return false
	}

	for i, t := range tp {
		if api.ValueType(t.Byte()) != vts[i] {
			return false
		}
	}

	return true
}

func typeNames(vts []api.ValueType) []string {
	r := make([]string, len(vts))

	for i, t := range vts {
		r[i] = api.ValueTypeName(t)
	}

	return r
}
