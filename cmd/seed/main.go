// Seed program: fills a database file with generated rows.
// Run: go run ./cmd/seed -n 50000
// Then inspect: go run ./cmd/inspect_idx databases/htap.db
package main

import (
	"flag"
	"fmt"
	"os"
	"math/rand/v2"
	"time"

	"HTAPDB/config"
	"HTAPDB/logging"
	storageengine "HTAPDB/storage_engine"
	"HTAPDB/types"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var cities = []string{"Pune", "Delhi", "Mumbai", "Chennai", "Kolkata", "Bengaluru", "Jaipur"}

func main() {
	cfg := config.Default()
	n := flag.Int("n", 10000, "rows to insert")
	batch := flag.Int("batch", 1000, "rows per InsertBatch call")
	shuffle := flag.Bool("shuffle", false, "insert keys in random order instead of ascending")
	flag.StringVar(&cfg.DataDir, "dir", cfg.DataDir, "data directory")
	flag.StringVar(&cfg.FileName, "db", cfg.FileName, "database file name")
	flag.IntVar(&cfg.PoolCapacity, "pool", cfg.PoolCapacity, "buffer pool capacity in pages")
	flag.IntVar(&cfg.MaxKeysPerNode, "fanout", cfg.MaxKeysPerNode, "max keys per node")
	level := flag.String("log", "info", "log level")
	flag.Parse()

	cfg.Log.Level = logging.Level(*level)
	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()
	lg := logging.WithComponent("seed")

	se, err := storageengine.Open(cfg)
	if err != nil {
		lg.Fatal("open", zap.Error(err))
	}
	defer se.Close()

	if !se.CatalogManager.HasSchema() {
		err := se.SetSchema(types.Schema{Columns: []types.ColumnDef{
			{Name: "name", Kind: types.KindText},
			{Name: "age", Kind: types.KindInteger},
			{Name: "city", Kind: types.KindText},
			{Name: "score", Kind: types.KindFloat, Nullable: true},
			{Name: "active", Kind: types.KindBoolean},
		}})
		if err != nil {
			lg.Fatal("schema", zap.Error(err))
		}
	}

	// Continue after the largest existing key so reruns append.
	base, _, err := se.LastKey()
	if err != nil {
		lg.Fatal("last key", zap.Error(err))
	}

	keys := make([]uint64, *n)
	for i := range keys {
		keys[i] = base + uint64(i) + 1
	}
	if *shuffle {
		rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	}

	start := time.Now()
	rows := make([]types.Row, 0, *batch)
	inserted := 0
	for i, k := range keys {
		rows = append(rows, makeRow(k))
		if len(rows) == *batch || i == len(keys)-1 {
			done, err := se.InsertBatch(rows)
			inserted += done
			if err != nil {
				lg.Fatal("insert batch", logging.Key(k), zap.Error(err))
			}
			rows = rows[:0]
		}
	}
	if err := se.Flush(); err != nil {
		lg.Fatal("flush", zap.Error(err))
	}

	elapsed := time.Since(start)
	st, err := se.Stats()
	if err != nil {
		lg.Fatal("stats", zap.Error(err))
	}
	fmt.Printf("inserted %s rows in %s (%s rows/s)\n",
		humanize.Comma(int64(inserted)), elapsed.Round(time.Millisecond),
		humanize.Comma(int64(float64(inserted)/elapsed.Seconds())))
	fmt.Println(st)
}

func makeRow(k uint64) types.Row {
	score := types.Float(float64(k%1000) / 10)
	if k%17 == 0 {
		score = types.Null()
	}
	return types.NewRow(k,
		types.Text(fmt.Sprintf("user-%06d", k)),
		types.Int(int64(18+k%60)),
		types.Text(cities[k%uint64(len(cities))]),
		score,
		types.Bool(k%3 != 0),
	)
}
