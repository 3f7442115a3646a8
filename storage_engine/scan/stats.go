package scan

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// Stats describes one finished (or in-progress) scan.
type Stats struct {
	Mode         Mode
	Workers      int
	Leaves       int // leaves in the snapshot the scan started from, 0 for chain walks
	PagesRead    int64
	TotalScanned int64 // rows examined
	Matched      int64 // rows that passed the predicate
	Filtered     int64 // rows rejected by the predicate
	Returned     int64 // rows handed to the caller after offset and limit
	ReadAhead    ReadAheadMetrics
	Elapsed      time.Duration
}

// Selectivity is the fraction of examined rows that matched.
func (s Stats) Selectivity() float64 {
	if s.TotalScanned == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.TotalScanned)
}

// RowsPerSecond is examined rows over wall time.
func (s Stats) RowsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalScanned) / s.Elapsed.Seconds()
}

func (s Stats) String() string {
	return fmt.Sprintf("%s scan, %d worker(s): %s rows examined in %s pages, %s matched (%.1f%%), %s returned in %s; read-ahead %d deep, %.0f%% hits",
		s.Mode, s.Workers,
		humanize.Comma(s.TotalScanned), humanize.Comma(s.PagesRead),
		humanize.Comma(s.Matched), 100*s.Selectivity(),
		humanize.Comma(s.Returned), s.Elapsed.Round(time.Microsecond),
		s.ReadAhead.Depth, 100*s.ReadAhead.HitRate())
}

type counters struct {
	pages    atomic.Int64
	scanned  atomic.Int64
	matched  atomic.Int64
	returned atomic.Int64
	ra       readAheadCounters
}

func (c *counters) snapshot(base Stats, depth int, elapsed time.Duration) Stats {
	s := base
	s.PagesRead = c.pages.Load()
	s.TotalScanned = c.scanned.Load()
	s.Matched = c.matched.Load()
	s.Filtered = s.TotalScanned - s.Matched
	s.Returned = c.returned.Load()
	s.ReadAhead = c.ra.snapshot(depth)
	s.Elapsed = elapsed
	return s
}
