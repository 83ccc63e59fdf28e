package api

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/ecudatalog/pkg/datalog"
	"github.com/ssargent/ecudatalog/pkg/storage"
)

// DatalogStore is the archive the server reads and writes.
// *storage.Archive implements it.
type DatalogStore interface {
	Ingest(doc datalog.Document, name string) (storage.Summary, error)
	Get(id ksuid.KSUID) ([]byte, error)
	Load(id ksuid.KSUID) (datalog.Document, error)
	Summary(id ksuid.KSUID) (storage.Summary, error)
	List() ([]storage.Summary, error)
	Delete(id ksuid.KSUID) error
}

var _ DatalogStore = (*storage.Archive)(nil)
