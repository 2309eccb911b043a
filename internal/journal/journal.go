package journal

// Journal defines the operations on the imprint journal.
type Journal interface {
	Record(entry Entry, files []WrittenFile) (string, error)
	Get(id string) (*Entry, error)
	List(limit int) ([]Entry, error)
	WrittenPaths(id string) ([]WrittenFile, error)
	Verify(id string) (*Report, error)
	Close() error
}

var _ Journal = (*DB)(nil)
