package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/pxdb/pkg/table"
	"github.com/ssargent/pxdb/pkg/value"
)

// MetaPrefix is the key prefix of export run descriptions
const MetaPrefix = "_meta/"

const pebbleBatchSize = 1000

// RunMeta describes one export into a Pebble store
type RunMeta struct {
	ID       string    `json:"id"`
	Table    string    `json:"table"`
	Fields   []string  `json:"fields"`
	Records  int       `json:"records"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// PebbleSink stores each record as a JSON object under <table>/<index>, with
// the index zero padded so keys sort in record order
type PebbleSink struct {
	db    *pebble.DB
	r     *Renderer
	batch *pebble.Batch
	meta  RunMeta

	// record indexes already committed by flush, so Abort can remove them
	flushed     bool
	first, last int
}

// OpenPebble opens (or creates) the Pebble store in dir
func OpenPebble(dir, tableName string, r *Renderer) (*PebbleSink, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble store %s", dir)
	}
	if tableName == "" {
		tableName = "table"
	}
	return &PebbleSink{
		db: db,
		r:  r,
		meta: RunMeta{
			ID:    ksuid.New().String(),
			Table: tableName,
		},
	}, nil
}

// RecordKey returns the key a record is stored under
func RecordKey(tableName string, index int) []byte {
	return []byte(fmt.Sprintf("%s/%010d", tableName, index))
}

// RunID identifies this export; its description is stored under MetaPrefix+RunID
func (s *PebbleSink) RunID() string {
	return s.meta.ID
}

// Begin records the schema for the run description
func (s *PebbleSink) Begin(schema []table.FieldDescriptor) error {
	s.meta.Started = time.Now().UTC()
	s.meta.Fields = make([]string, len(schema))
	for i, f := range schema {
		s.meta.Fields[i] = f.Name
	}
	s.batch = s.db.NewBatch()
	return nil
}

// Write stores one record
func (s *PebbleSink) Write(index int, rec []value.Value) error {
	obj := make(map[string]string, len(rec))
	for i, v := range rec {
		text, err := s.r.Text(v)
		if err != nil {
			return err
		}
		obj[s.meta.Fields[i]] = text
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return errors.Wrapf(err, "encode record %d", index)
	}
	if err := s.batch.Set(RecordKey(s.meta.Table, index), data, nil); err != nil {
		return errors.Wrapf(err, "store record %d", index)
	}
	if s.meta.Records == 0 || index < s.first {
		s.first = index
	}
	if index > s.last {
		s.last = index
	}
	s.meta.Records++

	if s.batch.Count() >= pebbleBatchSize {
		return s.flush()
	}
	return nil
}

func (s *PebbleSink) flush() error {
	if err := s.batch.Commit(pebble.NoSync); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	s.batch.Close()
	s.batch = s.db.NewBatch()
	s.flushed = true
	return nil
}

// Close commits pending records, writes the run description and closes the store
func (s *PebbleSink) Close() error {
	err := s.finish()
	if cerr := s.db.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "close pebble store")
	}
	return err
}

// Abort drops pending records, deletes the ones already flushed by this run
// and closes the store without writing a run description
func (s *PebbleSink) Abort() error {
	var err error
	if s.batch != nil {
		s.batch.Close()
		s.batch = nil
	}
	if s.flushed {
		err = errors.Wrap(s.db.DeleteRange(
			RecordKey(s.meta.Table, s.first),
			RecordKey(s.meta.Table, s.last+1),
			pebble.Sync,
		), "delete flushed records")
	}
	if cerr := s.db.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "close pebble store")
	}
	return err
}

func (s *PebbleSink) finish() error {
	if s.batch == nil {
		return nil
	}
	if err := s.batch.Commit(pebble.NoSync); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	s.batch.Close()
	s.batch = nil

	s.meta.Finished = time.Now().UTC()
	data, err := json.Marshal(s.meta)
	if err != nil {
		return errors.Wrap(err, "encode run description")
	}
	return errors.Wrap(s.db.Set([]byte(MetaPrefix+s.meta.ID), data, pebble.Sync), "store run description")
}

// ReadRecord returns the stored JSON object of one record. It is used to
// read back an export.
func ReadRecord(db *pebble.DB, tableName string, index int) (map[string]string, error) {
	data, closer, err := db.Get(RecordKey(tableName, index))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.Wrapf(err, "decode record %d", index)
	}
	return obj, nil
}

// ReadRun returns the description of an export run
func ReadRun(db *pebble.DB, id string) (*RunMeta, error) {
	data, closer, err := db.Get([]byte(MetaPrefix + id))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var meta RunMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(err, "decode run description")
	}
	return &meta, nil
}
