package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexVerifier checks that the indexes of the served document types exist.
type IndexVerifier interface {
	Verify(ctx context.Context, docTypes []string) error
}
