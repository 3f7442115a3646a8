package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"HTAPDB/config"
	"HTAPDB/display"
	"HTAPDB/logging"
	storageengine "HTAPDB/storage_engine"
	"HTAPDB/storage_engine/scan"
	"HTAPDB/types"

	"github.com/dustin/go-humanize"
)

/*
Line REPL over one database file.

	put <id> <v1> <v2> ...     insert under an explicit key
	add <v1> <v2> ...          insert under a generated key
	get <id>
	range <lo> <hi>
	update <id> <v1> ...
	del <id>
	scan [workers] [limit]     workers > 0 runs a parallel scan
	count | sum <col> | avg <col> | min <col> | max <col>
	schema <name:TYPE[?]> ...  ? marks a nullable column
	stats | flush | tree | check | help | exit
*/

func main() {
	cfgPath := flag.String("config", "", "JSON config file")
	dir := flag.String("dir", "", "data directory (overrides config)")
	file := flag.String("db", "", "database file name (overrides config)")
	level := flag.String("log", "", "log level: debug, info, warn, error")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *dir != "" {
		cfg.DataDir = *dir
	}
	if *file != "" {
		cfg.FileName = *file
	}
	if *level != "" {
		cfg.Log.Level = logging.Level(*level)
	} else if *cfgPath == "" {
		cfg.Log.Level = logging.LevelWarn
	}
	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logging.Close()

	se, err := storageengine.Open(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, display.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
	defer se.Close()

	fmt.Println(display.TitleStyle.Render("htapdb") + " " + display.MutedStyle.Render(cfg.Path()+"  (help for commands)"))
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("db> ")
		if !in.Scan() { // Ctrl+D
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			break
		}
		if err := run(se, strings.Fields(line)); err != nil {
			fmt.Println(display.ErrorStyle.Render("error: " + err.Error()))
		}
	}
}

func run(se *storageengine.StorageEngine, args []string) error {
	ctx := context.Background()
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "help":
		fmt.Println("put get range update del add scan count sum avg min max schema stats flush tree check exit")

	case "put":
		if len(args) < 1 {
			return fmt.Errorf("usage: put <id> <values...>")
		}
		id, err := parseKey(args[0])
		if err != nil {
			return err
		}
		values, err := se.CatalogManager.ParseRow(args[1:])
		if err != nil {
			return err
		}
		if err := se.Insert(types.NewRow(id, values...)); err != nil {
			return err
		}
		ok("inserted %d", id)

	case "add":
		values, err := se.CatalogManager.ParseRow(args)
		if err != nil {
			return err
		}
		id, err := se.InsertValues(values...)
		if err != nil {
			return err
		}
		ok("inserted %d", id)

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <id>")
		}
		id, err := parseKey(args[0])
		if err != nil {
			return err
		}
		row, err := se.Get(id)
		if err != nil {
			return err
		}
		fmt.Println(display.Rows(se.Schema(), []types.Row{row}))

	case "range":
		if len(args) != 2 {
			return fmt.Errorf("usage: range <lo> <hi>")
		}
		lo, err := parseKey(args[0])
		if err != nil {
			return err
		}
		hi, err := parseKey(args[1])
		if err != nil {
			return err
		}
		rows, err := se.GetRange(lo, hi)
		if err != nil {
			return err
		}
		fmt.Println(display.Rows(se.Schema(), rows))

	case "update":
		if len(args) < 1 {
			return fmt.Errorf("usage: update <id> <values...>")
		}
		id, err := parseKey(args[0])
		if err != nil {
			return err
		}
		values, err := se.CatalogManager.ParseRow(args[1:])
		if err != nil {
			return err
		}
		if err := se.Update(id, types.NewRow(id, values...)); err != nil {
			return err
		}
		ok("updated %d", id)

	case "del", "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: del <id>")
		}
		id, err := parseKey(args[0])
		if err != nil {
			return err
		}
		if err := se.Delete(id); err != nil {
			return err
		}
		ok("deleted %d", id)

	case "scan":
		opts := scan.ScanOptions{Limit: 50}
		if len(args) > 0 {
			w, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("workers: %w", err)
			}
			opts.Parallel, opts.Workers = w > 0, w
			opts.OrderBy = &scan.OrderBy{Column: scan.KeyColumn}
		}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("limit: %w", err)
			}
			opts.Limit = n
		}
		res, err := se.ScanAll(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Println(display.Rows(se.Schema(), res.Rows))
		fmt.Println(display.MutedStyle.Render(res.Stats.String()))

	case "count":
		n, err := se.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Println(humanize.Comma(n))

	case "sum", "avg", "min", "max":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <column>", cmd)
		}
		col, err := column(se.Schema(), args[0])
		if err != nil {
			return err
		}
		fn := map[string]scan.AggFunc{"sum": scan.AggSum, "avg": scan.AggAvg, "min": scan.AggMin, "max": scan.AggMax}[cmd]
		v, err := se.Aggregate(ctx, scan.ScanOptions{Parallel: true}, fn, col)
		if err != nil {
			return err
		}
		fmt.Println(v)

	case "schema":
		if len(args) == 0 {
			fmt.Println(strings.Join(se.Schema().Headers(), ", "))
			return nil
		}
		schema, err := parseSchema(args)
		if err != nil {
			return err
		}
		if err := se.SetSchema(schema); err != nil {
			return err
		}
		ok("schema set (%d columns)", len(schema.Columns))

	case "stats":
		st, err := se.Stats()
		if err != nil {
			return err
		}
		fmt.Println(display.KeyValues("engine", [][2]string{
			{"root", strconv.FormatInt(st.Root, 10)},
			{"height", strconv.Itoa(st.Height)},
			{"leaves", humanize.Comma(int64(st.Leaves))},
			{"max keys", strconv.Itoa(st.MaxKeys)},
			{"file size", humanize.IBytes(st.FileSize)},
			{"pool", st.Storage.Pool.String()},
			{"disk", st.Storage.Disk.String()},
		}))

	case "flush":
		if err := se.Flush(); err != nil {
			return err
		}
		ok("flushed")

	case "tree":
		return se.DumpTree(os.Stdout, len(args) > 0 && args[0] == "rows")

	case "check":
		rep, err := se.CheckConsistency()
		if err != nil {
			return err
		}
		ok("ok: height %d, %d internal, %d leaves, %s rows", rep.Height, rep.Internal, rep.Leaves, humanize.Comma(int64(rep.Rows)))

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func ok(format string, args ...any) {
	fmt.Println(display.SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func parseKey(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad key %q: %w", s, err)
	}
	return id, nil
}

// column accepts a column name or a 0-based position.
func column(schema types.Schema, s string) (int, error) {
	if i := schema.ColumnIndex(s); i >= 0 {
		return i, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("unknown column %q", s)
	}
	return i, nil
}

func parseSchema(args []string) (types.Schema, error) {
	var schema types.Schema
	for _, a := range args {
		name, typ, found := strings.Cut(a, ":")
		if !found {
			return schema, fmt.Errorf("column %q needs name:TYPE", a)
		}
		nullable := strings.HasSuffix(typ, "?")
		kind, err := types.ParseKind(strings.TrimSuffix(typ, "?"))
		if err != nil {
			return schema, err
		}
		schema.Columns = append(schema.Columns, types.ColumnDef{Name: name, Kind: kind, Nullable: nullable})
	}
	return schema, nil
}
