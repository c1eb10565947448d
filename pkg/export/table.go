package export

import "fmt"

// Column describes one exported field: Key indexes the row map, Title is printed.
type Column struct {
	Key   string
	Title string
	// Width is the relative PDF width weight; zero means 1.
	Width float64
}

// Table is tabular export content with ordered columns.
type Table struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
	// RowFill optionally returns an RGB hex colour (e.g. "#22c55e") for a row's highlight cell.
	RowFill func(row map[string]string) (column, hex string)
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}

func (t Table) record(row map[string]string) []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = row[col.Key]
	}
	return out
}
