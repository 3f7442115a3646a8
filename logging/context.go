package logging

import "go.uber.org/zap"

// WithComponent tags a logger with the engine component emitting the record,
// e.g. "bufferpool", "diskmanager", "bplus", "scan".
func WithComponent(name string) *zap.Logger {
	return L().With(zap.String("component", name))
}

func WithPage(l *zap.Logger, pageID int64) *zap.Logger {
	return l.With(zap.Int64("page_id", pageID))
}

func WithOp(l *zap.Logger, op string) *zap.Logger {
	return l.With(zap.String("op", op))
}

func PageID(id int64) zap.Field { return zap.Int64("page_id", id) }

func Key(k uint64) zap.Field { return zap.Uint64("key", k) }
