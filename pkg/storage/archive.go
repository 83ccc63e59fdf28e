package storage

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/datalog"
	"github.com/ssargent/ecudatalog/pkg/log"
)

var (
	// ErrNotFound is returned when no datalog is stored under an id.
	ErrNotFound = errors.New("datalog not found")

	// ErrInvalidID is returned by ParseID for malformed ids.
	ErrInvalidID = errors.New("invalid datalog id")
)

var (
	dataPrefix    = []byte("d/")
	summaryPrefix = []byte("s/")
)

// Summary describes a stored datalog.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Family     string    `json:"family"`
	Serial     uint32    `json:"serial"`
	Version    string    `json:"version"`
	Frames     int       `json:"frames"`
	Comments   int       `json:"comments"`
	Duration   float64   `json:"duration_seconds"`
	Faults     []string  `json:"faults,omitempty"`
	Compressed bool      `json:"compressed"`
	PlainSize  int64     `json:"plain_size"`
	StoredSize int64     `json:"stored_size"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Archive is a pebble-backed datalog store.
type Archive struct {
	db     *pebble.DB
	logger log.Logger
	load   []datalog.Option

	mu   sync.Mutex
	last ksuid.KSUID
}

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the archive logger.
func WithLogger(logger log.Logger) Option {
	return func(a *Archive) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDatalogOptions sets the options used to re-read and re-encode stored
// documents.
func WithDatalogOptions(opts ...datalog.Option) Option {
	return func(a *Archive) {
		a.load = append(a.load, opts...)
	}
}

// Open opens or creates an archive in dir.
func Open(dir string, opts ...Option) (*Archive, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open archive at %s", dir)
	}
	a := &Archive{db: db, logger: log.NewNoopLogger()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ParseID parses the string form of a datalog id.
func ParseID(s string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return ksuid.Nil, errors.Wrapf(ErrInvalidID, "%q", s)
	}
	return id, nil
}

// Ingest stores doc under a new id. FlashPro documents are stored
// compressed. name is kept in the summary for display only.
func (a *Archive) Ingest(doc datalog.Document, name string) (Summary, error) {
	compressed := doc.Family() == codec.FamilyFlashPro

	var buf bytes.Buffer
	if _, err := doc.Save(&buf, compressed); err != nil {
		return Summary{}, errors.Wrap(err, "failed to encode datalog")
	}

	id := a.newID()
	s := Summary{
		ID:         id.String(),
		Name:       name,
		Family:     doc.Family().String(),
		Serial:     doc.Serial(),
		Version:    doc.Version().String(),
		Frames:     doc.FrameCount(),
		Comments:   doc.CommentCount(),
		Duration:   doc.Duration().Seconds(),
		Compressed: compressed,
		PlainSize:  doc.Size(),
		StoredSize: int64(buf.Len()),
		IngestedAt: id.Time().UTC(),
	}
	for _, f := range doc.ActiveFaults() {
		s.Faults = append(s.Faults, f.DTC)
	}

	meta, err := json.Marshal(s)
	if err != nil {
		return Summary{}, err
	}

	b := a.db.NewBatch()
	defer b.Close()
	if err := b.Set(key(dataPrefix, id), buf.Bytes(), nil); err != nil {
		return Summary{}, err
	}
	if err := b.Set(key(summaryPrefix, id), meta, nil); err != nil {
		return Summary{}, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return Summary{}, errors.Wrap(err, "failed to commit datalog")
	}

	a.logger.Info("datalog ingested",
		log.String("id", s.ID),
		log.String("family", s.Family),
		log.Int("frames", s.Frames),
		log.Int64("stored_bytes", s.StoredSize))
	return s, nil
}

// Get returns the stored bytes of a datalog.
func (a *Archive) Get(id ksuid.KSUID) ([]byte, error) {
	return a.get(key(dataPrefix, id))
}

// Load decodes a stored datalog.
func (a *Archive) Load(id ksuid.KSUID) (datalog.Document, error) {
	raw, err := a.Get(id)
	if err != nil {
		return nil, err
	}
	return datalog.Read(bytes.NewReader(raw), a.load...)
}

// Summary returns the stored summary of a datalog.
func (a *Archive) Summary(id ksuid.KSUID) (Summary, error) {
	raw, err := a.get(key(summaryPrefix, id))
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return Summary{}, errors.Wrapf(err, "corrupt summary for %s", id)
	}
	return s, nil
}

// List returns every summary in ingestion order.
func (a *Archive) List() ([]Summary, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: summaryPrefix,
		UpperBound: prefixEnd(summaryPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Summary
	for iter.First(); iter.Valid(); iter.Next() {
		var s Summary
		if err := json.Unmarshal(iter.Value(), &s); err != nil {
			return nil, errors.Wrapf(err, "corrupt summary at key %x", iter.Key())
		}
		out = append(out, s)
	}
	return out, iter.Error()
}

// Delete removes a datalog. It returns ErrNotFound if nothing is stored
// under id.
func (a *Archive) Delete(id ksuid.KSUID) error {
	if _, err := a.get(key(summaryPrefix, id)); err != nil {
		return err
	}

	b := a.db.NewBatch()
	defer b.Close()
	if err := b.Delete(key(dataPrefix, id), nil); err != nil {
		return err
	}
	if err := b.Delete(key(summaryPrefix, id), nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return err
	}

	a.logger.Info("datalog deleted", log.String("id", id.String()))
	return nil
}

// newID returns a KSUID greater than every id this archive handed out
// before, so ids ingested within the same second still sort in order.
func (a *Archive) newID() ksuid.KSUID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := ksuid.New()
	if ksuid.Compare(id, a.last) <= 0 {
		id = a.last.Next()
	}
	a.last = id
	return id
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// get copies the value out; pebble's buffer is only valid until the closer
// runs.
func (a *Archive) get(k []byte) ([]byte, error) {
	data, closer, err := a.db.Get(k)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), data...), nil
}

func key(prefix []byte, id ksuid.KSUID) []byte {
	k := make([]byte, 0, len(prefix)+len(id))
	k = append(k, prefix...)
	return append(k, id.Bytes()...)
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	end[len(end)-1]++
	return end
}
