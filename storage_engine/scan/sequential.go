package scan

import (
	"context"

	"HTAPDB/types"

	"golang.org/x/sync/errgroup"
)

type sequentialSource struct {
	stream *pageStream
	filter *filter
	cancel context.CancelFunc
	g      *errgroup.Group
}

func (s *Scanner) startSequential(ctx context.Context, first int64, opts ScanOptions, f *filter) *sequentialSource {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	return &sequentialSource{
		stream: chainStream(gctx, g, s.pages, first, opts.readAhead(), &f.c.ra),
		filter: f,
		cancel: cancel,
		g:      g,
	}
}

func (s *sequentialSource) next(ctx context.Context) ([]types.Row, bool, error) {
	for {
		p, ok, err := s.stream.next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		if rows := s.filter.apply(p); len(rows) > 0 {
			return rows, true, nil
		}
	}
}

func (s *sequentialSource) close() error {
	s.cancel()
	return s.g.Wait()
}
