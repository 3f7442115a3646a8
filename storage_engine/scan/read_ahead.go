package scan

import (
	"context"
	"sync/atomic"

	"HTAPDB/storage_engine/page"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// PageReader is the part of the storage manager a scan needs.
type PageReader interface {
	ReadPage(id int64) (*page.Page, error)
	// Prefetch asks the OS to start reading ids that are not resident and
	// returns how many it hinted.
	Prefetch(ids []int64) int
}

// ReadAheadMetrics describes how well readers stayed ahead of their consumers.
type ReadAheadMetrics struct {
	Depth          int   // pages kept in flight per reader, 0 when disabled
	PagesDelivered int64 // pages handed to consumers
	BufferHits     int64 // page was already waiting when the consumer asked
	BufferWaits    int64 // consumer blocked on the reader
	PagesHinted    int64 // pages passed to the kernel as upcoming reads
}

// HitRate is the share of deliveries that did not wait on I/O.
func (m ReadAheadMetrics) HitRate() float64 {
	if m.PagesDelivered == 0 {
		return 0
	}
	return float64(m.BufferHits) / float64(m.PagesDelivered)
}

type readAheadCounters struct {
	delivered atomic.Int64
	hits      atomic.Int64
	waits     atomic.Int64
	hinted    atomic.Int64
}

func (c *readAheadCounters) snapshot(depth int) ReadAheadMetrics {
	return ReadAheadMetrics{
		Depth:          depth,
		PagesDelivered: c.delivered.Load(),
		BufferHits:     c.hits.Load(),
		BufferWaits:    c.waits.Load(),
		PagesHinted:    c.hinted.Load(),
	}
}

type fetched struct {
	page *page.Page
	err  error
}

// pageStream hands out leaf pages in order. With depth > 0 a goroutine in g
// reads up to depth pages ahead into a buffered channel; with depth 0 pages
// are read on demand by the consumer.
type pageStream struct {
	ch     <-chan fetched
	direct func() (*page.Page, bool, error)
	m      *readAheadCounters
}

func (s *pageStream) next(ctx context.Context) (*page.Page, bool, error) {
	if s.direct != nil {
		p, ok, err := s.direct()
		if ok {
			s.m.delivered.Add(1)
		}
		return p, ok, err
	}

	var f fetched
	var ok bool
	select {
	case f, ok = <-s.ch:
		if ok && f.err == nil {
			s.m.hits.Add(1)
		}
	default:
		select {
		case f, ok = <-s.ch:
			if ok && f.err == nil {
				s.m.waits.Add(1)
			}
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	if !ok {
		// the reader also stops when ctx is cancelled; that is not the end of the chain
		return nil, false, ctx.Err()
	}
	if f.err != nil {
		return nil, false, f.err
	}
	s.m.delivered.Add(1)
	return f.page, true, nil
}

// listStream reads ids in order, hinting the next window to the kernel each
// time the reader crosses into a new one.
func listStream(ctx context.Context, g *errgroup.Group, pages PageReader, ids []int64, depth int, m *readAheadCounters) *pageStream {
	if depth <= 0 {
		i := 0
		return &pageStream{m: m, direct: func() (*page.Page, bool, error) {
			if i >= len(ids) {
				return nil, false, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
			p, err := readLeaf(pages, ids[i])
			i++
			return p, err == nil, err
		}}
	}

	ch := make(chan fetched, depth)
	g.Go(func() error {
		defer close(ch)
		m.hinted.Add(int64(pages.Prefetch(window(ids, 0, depth))))
		for i, id := range ids {
			if i%depth == 0 {
				m.hinted.Add(int64(pages.Prefetch(window(ids, i+depth, depth))))
			}
			p, err := readLeaf(pages, id)
			select {
			case ch <- fetched{page: p, err: err}:
			case <-ctx.Done():
				return ctx.Err()
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return &pageStream{ch: ch, m: m}
}

// chainStream follows NextLeaf links from first.
func chainStream(ctx context.Context, g *errgroup.Group, pages PageReader, first int64, depth int, m *readAheadCounters) *pageStream {
	if depth <= 0 {
		id := first
		return &pageStream{m: m, direct: func() (*page.Page, bool, error) {
			if id == page.NullPageID {
				return nil, false, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
			p, err := readLeaf(pages, id)
			if err != nil {
				return nil, false, err
			}
			id = p.NextLeaf
			return p, true, nil
		}}
	}

	ch := make(chan fetched, depth)
	g.Go(func() error {
		defer close(ch)
		for id := first; id != page.NullPageID; {
			p, err := readLeaf(pages, id)
			select {
			case ch <- fetched{page: p, err: err}:
			case <-ctx.Done():
				return ctx.Err()
			}
			if err != nil {
				return err
			}
			id = p.NextLeaf
		}
		return nil
	})
	return &pageStream{ch: ch, m: m}
}

func readLeaf(pages PageReader, id int64) (*page.Page, error) {
	p, err := pages.ReadPage(id)
	if err != nil {
		return nil, errors.Wrapf(err, "scan leaf %d", id)
	}
	if !p.IsLeaf {
		return nil, errors.Errorf("scan: page %d is not a leaf", id)
	}
	return p, nil
}

func window(ids []int64, start, n int) []int64 {
	if start >= len(ids) {
		return nil
	}
	return ids[start:min(start+n, len(ids))]
}
