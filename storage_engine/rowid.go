package storageengine

// NextRowID returns a new time-ordered id from the engine's snowflake node.
// Ids from one node only grow, so generated rows append to the rightmost leaf.
func (se *StorageEngine) NextRowID() uint64 {
	return uint64(se.ids.Generate().Int64())
}
