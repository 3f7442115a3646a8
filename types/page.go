package types

type PageType uint8

const (
	PageTypeUnknown PageType = iota
	PageTypeMetadata
	PageTypeLeaf
	PageTypeInternal
)

func (t PageType) String() string {
	switch t {
	case PageTypeMetadata:
		return "meta"
	case PageTypeLeaf:
		return "leaf"
	case PageTypeInternal:
		return "internal"
	}
	return "unknown"
}
