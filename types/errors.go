package types

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

/*
Error taxonomy of the storage engine.

Every failure that leaves the engine is a *StorageError somewhere in its chain, so callers
classify with errors.Is(err, types.ErrNotFound) or types.KindOf(err) no matter how many
layers wrapped it on the way up. Constructors attach a stack through github.com/pkg/errors.

	IoError        disk read/write failure, surfaced as-is, never retried
	CorruptPage    magic/size/checksum mismatch, fatal for that page
	DuplicateKey   insert of an existing key
	NotFound       update/delete/get of an absent key
	PoolExhausted  no evictable page in the buffer pool
	DecodeError    malformed value bytes
*/

type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindIO
	KindCorruptPage
	KindDuplicateKey
	KindNotFound
	KindPoolExhausted
	KindDecode
	KindRowTooLarge
	KindClosed
	KindInvalidArgument
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindIO:              "io error",
	KindCorruptPage:     "corrupt page",
	KindDuplicateKey:    "duplicate key",
	KindNotFound:        "not found",
	KindPoolExhausted:   "buffer pool exhausted",
	KindDecode:          "decode error",
	KindRowTooLarge:     "row too large",
	KindClosed:          "engine closed",
	KindInvalidArgument: "invalid argument",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// StorageError is the engine's public error type.
type StorageError struct {
	Kind   ErrorKind
	Op     string
	PageID int64
	Key    uint64
	HasKey bool
	Err    error
}

// Sentinels for errors.Is. They match any StorageError of the same kind.
var (
	ErrIO              = &StorageError{Kind: KindIO}
	ErrCorruptPage     = &StorageError{Kind: KindCorruptPage}
	ErrDuplicateKey    = &StorageError{Kind: KindDuplicateKey}
	ErrNotFound        = &StorageError{Kind: KindNotFound}
	ErrPoolExhausted   = &StorageError{Kind: KindPoolExhausted}
	ErrDecode          = &StorageError{Kind: KindDecode}
	ErrRowTooLarge     = &StorageError{Kind: KindRowTooLarge}
	ErrClosed          = &StorageError{Kind: KindClosed}
	ErrInvalidArgument = &StorageError{Kind: KindInvalidArgument}
)

func (e *StorageError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.PageID != 0 {
		msg += fmt.Sprintf(" (page=%d)", e.PageID)
	}
	if e.HasKey {
		msg += fmt.Sprintf(" (key=%d)", e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches on kind so sentinels compare equal to any error of their class.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first StorageError in err's chain.
func KindOf(err error) ErrorKind {
	var se *StorageError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// NewError builds a StorageError of the given kind and records the call stack.
func NewError(kind ErrorKind, op string, cause error) error {
	return errors.WithStack(&StorageError{Kind: kind, Op: op, Err: cause})
}

func IOError(op string, pageID int64, cause error) error {
	return errors.WithStack(&StorageError{Kind: KindIO, Op: op, PageID: pageID, Err: cause})
}

func CorruptPageError(pageID int64, format string, args ...any) error {
	return errors.WithStack(&StorageError{
		Kind:   KindCorruptPage,
		Op:     "decode page",
		PageID: pageID,
		Err:    errors.Errorf(format, args...),
	})
}

func DuplicateKeyError(op string, key uint64) error {
	return errors.WithStack(&StorageError{Kind: KindDuplicateKey, Op: op, Key: key, HasKey: true})
}

func NotFoundError(op string, key uint64) error {
	return errors.WithStack(&StorageError{Kind: KindNotFound, Op: op, Key: key, HasKey: true})
}

func PoolExhaustedError(capacity int) error {
	return errors.WithStack(&StorageError{
		Kind: KindPoolExhausted,
		Op:   "evict",
		Err:  errors.Errorf("all %d resident pages are pinned", capacity),
	})
}

func DecodeError(format string, args ...any) error {
	return errors.WithStack(&StorageError{Kind: KindDecode, Op: "decode value", Err: errors.Errorf(format, args...)})
}

func RowTooLargeError(key uint64, size, limit int) error {
	return errors.WithStack(&StorageError{
		Kind:   KindRowTooLarge,
		Op:     "insert",
		Key:    key,
		HasKey: true,
		Err:    errors.Errorf("encoded row is %d bytes, limit is %d", size, limit),
	})
}

func ClosedError(op string) error {
	return errors.WithStack(&StorageError{Kind: KindClosed, Op: op})
}
