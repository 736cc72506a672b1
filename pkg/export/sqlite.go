package export

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // pure Go driver registered as "sqlite"

	"github.com/ssargent/pxdb/pkg/table"
	"github.com/ssargent/pxdb/pkg/value"
)

// SQLiteSink loads records into a table of a SQLite database. All rows are
// inserted in one transaction that is committed by Close.
type SQLiteSink struct {
	db    *sql.DB
	name  string
	r     *Renderer
	tx    *sql.Tx
	stmt  *sql.Stmt
	args  []interface{}
	owned bool
}

// OpenSQLite opens (or creates) the database at path. Records go to a table
// called name, which is replaced if it exists.
func OpenSQLite(path, name string, r *Renderer) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite database %s", path)
	}
	s := NewSQLiteSink(db, name, r)
	s.owned = true
	return s, nil
}

// NewSQLiteSink writes to an existing database handle, which Close leaves open
func NewSQLiteSink(db *sql.DB, name string, r *Renderer) *SQLiteSink {
	if name == "" {
		name = "records"
	}
	return &SQLiteSink{db: db, name: name, r: r}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Begin creates the table and prepares the insert statement
func (s *SQLiteSink) Begin(schema []table.FieldDescriptor) error {
	cols := make([]string, len(schema))
	names := make([]string, len(schema))
	marks := make([]string, len(schema))
	for i, f := range schema {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("field_%d", i+1)
		}
		names[i] = quoteIdent(name)
		cols[i] = names[i] + " " + affinity(f.Type)
		marks[i] = "?"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	s.tx = tx

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + quoteIdent(s.name)); err != nil {
		return errors.Wrapf(err, "drop table %s", s.name)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(s.name), strings.Join(cols, ", "))
	if _, err := tx.Exec(create); err != nil {
		return errors.Wrapf(err, "create table %s", s.name)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.name), strings.Join(names, ", "), strings.Join(marks, ", "))
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	s.stmt = stmt
	s.args = make([]interface{}, len(schema))
	return nil
}

// Write inserts one record
func (s *SQLiteSink) Write(index int, rec []value.Value) error {
	for i, v := range rec {
		arg, err := s.r.Native(v)
		if err != nil {
			return err
		}
		s.args[i] = arg
	}
	if _, err := s.stmt.Exec(s.args...); err != nil {
		return errors.Wrapf(err, "insert record %d", index)
	}
	return nil
}

// Close commits the transaction
func (s *SQLiteSink) Close() error {
	var err error
	if s.stmt != nil {
		s.stmt.Close()
	}
	if s.tx != nil {
		err = errors.Wrap(s.tx.Commit(), "commit")
	}
	if s.owned {
		if cerr := s.db.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close sqlite database")
		}
	}
	return err
}

// Abort rolls the transaction back, leaving any previous table in place
func (s *SQLiteSink) Abort() error {
	var err error
	if s.stmt != nil {
		s.stmt.Close()
	}
	if s.tx != nil {
		err = errors.Wrap(s.tx.Rollback(), "rollback")
	}
	if s.owned {
		if cerr := s.db.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close sqlite database")
		}
	}
	return err
}
