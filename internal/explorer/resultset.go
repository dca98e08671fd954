package explorer

import (
	"database/sql/driver"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ResultSet is a fully materialised, display-ready query result.
type ResultSet struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
	Elapsed   time.Duration
}

// collect drains rows into a ResultSet, stopping after maxRows. maxRows <= 0 means no cap.
func collect(rows pgx.Rows, maxRows int) (*ResultSet, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	rs := &ResultSet{Columns: make([]string, len(fields)), Rows: [][]string{}}
	for i, f := range fields {
		rs.Columns[i] = f.Name
	}

	for rows.Next() {
		if maxRows > 0 && len(rs.Rows) >= maxRows {
			rs.Truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		rs.Rows = append(rs.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return "\\x" + hex.EncodeToString(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case [16]byte:
		return uuid.UUID(x).String()
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		return formatValue(dv)
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSV writes the result with a header row.
func WriteCSV(w io.Writer, rs *ResultSet) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(rs.Columns); err != nil {
		return err
	}
	if err := writer.WriteAll(rs.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// CSVFilename names a query result download at t.
func CSVFilename(t time.Time) string {
	return "query_result_" + t.Format("20060102_150405") + ".csv"
}
