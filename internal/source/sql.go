package source

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Source runs one textual query and returns a header row followed by data rows.
// SQL NULL comes back as the empty string.
type Source interface {
	Query(ctx context.Context, query string) ([][]string, error)
}

// Drivers lists the database/sql driver names this package registers.
var Drivers = []string{"mysql", "postgres", "sqlite"}

// SQL is a Source backed by database/sql.
type SQL struct {
	driver string
	db     *sql.DB
	pinged bool
}

// Open prepares a connection pool for the given driver and DSN. The connection itself is
// verified on the first query.
func Open(driver, dsn string) (*SQL, error) {
	if !knownDriver(driver) {
		return nil, &UnavailableError{Driver: driver, Err: fmt.Errorf("unsupported driver (use one of %v)", Drivers)}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &UnavailableError{Driver: driver, Err: err}
	}
	return &SQL{driver: driver, db: db}, nil
}

// Close releases the underlying pool.
func (s *SQL) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Query executes query and materializes every row as text.
func (s *SQL) Query(ctx context.Context, query string) ([][]string, error) {
	if !s.pinged {
		if err := s.db.PingContext(ctx); err != nil {
			return nil, &UnavailableError{Driver: s.driver, Err: err}
		}
		s.pinged = true
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &UnavailableError{Driver: s.driver, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &UnavailableError{Driver: s.driver, Err: err}
	}
	out := [][]string{columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, &UnavailableError{Driver: s.driver, Err: err}
		}
		rec := make([]string, len(columns))
		for i, v := range values {
			rec[i] = stringify(v)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &UnavailableError{Driver: s.driver, Err: err}
	}
	return out, nil
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func knownDriver(name string) bool {
	for _, d := range Drivers {
		if d == name {
			return true
		}
	}
	return false
}
