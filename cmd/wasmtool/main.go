package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"

	"nikand.dev/go/cli"
	"nikand.dev/go/cli/flag"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/ext/tlflag"
	"tlog.app/go/tlog/tlio"

	"nikand.dev/go/wasmdec"
	"nikand.dev/go/wasmdec/engine"
)

type (
	result struct {
		name string
		bin  []byte
		m    *wasmdec.Module
		err  error
	}
)

func main() {
	dump := &cli.Command{
		Name:        "dump",
		Description: "decode modules and print their contents",
		Args:        cli.Args{},
		Action:      dumpRun,
		Flags: []*cli.Flag{
			cli.NewFlag("code", false, "print function body instructions"),
			cli.NewFlag("skip-custom", false, "drop custom sections"),
		},
	}

	check := &cli.Command{
		Name:        "check",
		Description: "decode modules and report the first error of each",
		Args:        cli.Args{},
		Action:      checkRun,
		Flags: []*cli.Flag{
			cli.NewFlag("check-code", false, "walk function bodies instruction by instruction"),
			cli.NewFlag("engine", false, "compile with wazero and compare with the decoded module"),
		},
	}

	app := &cli.Command{
		Name:        "wasmtool",
		Description: "tool to decode wasm modules",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("log", "stderr?dm", "log output file (or stderr)"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.NewFlag("debug", "", "debug address", flag.Hidden),
			cli.NewFlag("max-size", "", "max module size in bytes"),
			cli.FlagfileFlag,
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			dump,
			check,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	w, err := tlflag.OpenWriter(c.String("log"))
	if err != nil {
		return errors.Wrap(err, "open log file")
	}

	err = tlio.WalkWriter(w, func(w io.Writer) error {
		c, ok := w.(*tlog.ConsoleWriter)
		if !ok {
			return nil
		}

		c.StringOnNewLineMinLen = 16

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "walk writer")
	}

	tlog.DefaultLogger = tlog.New(w)

	tlog.SetVerbosity(c.String("verbosity"))

	if q := c.String("debug"); q != "" {
		l, err := net.Listen("tcp", q)
		if err != nil {
			return errors.Wrap(err, "listen debug")
		}

		tlog.Printw("start debug interface", "addr", l.Addr())

		go func() {
			err := http.Serve(l, nil)
			if err != nil {
				tlog.Printw("debug", "addr", q, "err", err, "", tlog.Fatal)
				panic(err)
			}
		}()
	}

	return nil
}

func loader(c *cli.Command) (l wasmdec.Loader, err error) {
	q := c.String("max-size")
	if q == "" {
		return l, nil
	}

	l.MaxSize, err = strconv.ParseInt(q, 10, 64)
	if err != nil {
		return l, errors.Wrap(err, "max-size")
	}

	return l, nil
}

// decodeAll decodes every file in its own goroutine.
// Parsers share nothing, results come back in argument order.
func decodeAll(d *wasmdec.Decoder, l wasmdec.Loader, names []string) []result {
	res := make([]result, len(names))
	done := make(chan struct{}, len(names))

	for i, name := range names {
		go func(r *result, name string) {
			defer func() { done <- struct{}{} }()

			r.name = name

			r.bin, r.err = l.ReadFile(name)
			if r.err != nil {
				r.err = errors.Wrap(r.err, "read file")
				return
			}

			p := d.Parser(r.bin)

			r.m, r.err = p.Module()
			if r.err != nil {
				r.err = errors.Wrap(r.err, "decode: at pos 0x%x", p.Pos())
			}
		}(&res[i], name)
	}

	for range names {
		<-done
	}

	return res
}

func dumpRun(c *cli.Command) (err error) {
	l, err := loader(c)
	if err != nil {
		return err
	}

	d := &wasmdec.Decoder{
		SkipCustom: c.Bool("skip-custom"),
	}

	for _, r := range decodeAll(d, l, c.Args) {
		if r.err != nil {
			return errors.Wrap(r.err, "%v", r.name)
		}

		dumpModule(r.m, c.Bool("code"))
	}

	return nil
}

func checkRun(c *cli.Command) (err error) {
	l, err := loader(c)
	if err != nil {
		return err
	}

	d := &wasmdec.Decoder{
		CheckCode: c.Bool("check-code"),
	}

	var e *engine.Engine

	if c.Bool("engine") {
		ctx := context.Background()

		e = engine.New(ctx)
		defer func() {
			if closeErr := e.Close(ctx); err == nil && closeErr != nil {
				err = errors.Wrap(closeErr, "close engine")
			}
		}()
	}

	failed := 0

	for _, r := range decodeAll(d, l, c.Args) {
		if r.err == nil && e != nil {
			var cm *engine.Compiled

			cm, r.err = e.Compile(context.Background(), r.bin, r.m)
			if cm != nil {
				_ = cm.Close(context.Background())
			}
		}

		if r.err != nil {
			failed++
			tlog.Printw("check", "file", r.name, "err", r.err)

			continue
		}

		tlog.Printw("check", "file", r.name, "sections", r.m.Sections, "ok", true)
	}

	if failed != 0 {
		return errors.New("%d of %d modules failed", failed, len(c.Args))
	}

	return nil
}

func dumpModule(m *wasmdec.Module, code bool) {
	tlog.Printw("module", "version", m.Version, "start", m.Start, "sections", m.Sections, "data_count", m.DataCount)

	for i, v := range m.Signatures {
		tlog.Printw("type", "i", i, "params", v.Params, "results", v.Results)
	}

	for i, v := range m.Imports {
		tlog.Printw("import", "i", i, "mod", v.Module, "name", v.Name, "kind", v.Kind)
	}

	for i, v := range m.Functions {
		tlog.Printw("function", "i", i, "tp", v)
	}

	for i, v := range m.Tables {
		tlog.Printw("table", "i", i, "tp", v.Type, "limits", v.Limits)
	}

	for i, v := range m.Memories {
		tlog.Printw("memory", "i", i, "limits", v)
	}

	for i, v := range m.Globals {
		tlog.Printw("global", "i", i, "tp", v.Type, "mut", v.Mutable, "init", v.Init)
	}

	for i, v := range m.Exports {
		tlog.Printw("export", "i", i, "name", v.Name, "kind", v.Kind, "index", v.Index)
	}

	for i, v := range m.Elements {
		tlog.Printw("element", "i", i, "flags", v.Flags, "table", v.Table, "offset", v.Offset, "funcs", v.Funcs)
	}

	for i, v := range m.Code {
		tlog.Printw("code", "i", i, "locals", len(v.Locals), "expr", v.Expr)

		if !code {
			continue
		}

		err := wasmdec.Instructions(v.Expr, func(pos int, op wasmdec.Opcode, instr []byte) error {
			tlog.Printw("instr", "func", i, "pos", tlog.NextAsHex, pos, "op", op, "code", tlog.NextAsHex, instr)
			return nil
		})
		if err != nil {
			tlog.Printw("code", "i", i, "err", err)
		}
	}

	for i, v := range m.Data {
		tlog.Printw("data", "i", i, "flags", v.Flags, "memory", v.Memory, "offset", v.Offset, "init", v.Init)
	}

	for i, v := range m.Custom {
		tlog.Printw("custom", "i", i, "name", v.Name, "data", wasmdec.Code(v.Data))
	}
}
