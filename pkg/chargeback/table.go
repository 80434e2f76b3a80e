package chargeback

// TableBuilder accumulates columns into rows for display in an HTML page.
// Each added column contributes one cell per row.
type TableBuilder struct {
	rows [][]string
}

// Add appends a column of values. The first column establishes the row
// count; later columns shorter than that leave empty cells, and longer
// ones grow the table with rows padded to the current width.
func (t *TableBuilder) Add(values []string) {
	if len(t.rows) == 0 {
		for _, value := range values {
			t.rows = append(t.rows, []string{value})
		}
		return
	}

	width := len(t.rows[0])
	for len(t.rows) < len(values) {
		t.rows = append(t.rows, make([]string, width))
	}
	for i := range t.rows {
		if i < len(values) {
			t.rows[i] = append(t.rows[i], values[i])
		} else {
			t.rows[i] = append(t.rows[i], "")
		}
	}
}

// AddWithHeading appends a column with heading as its first cell.
func (t *TableBuilder) AddWithHeading(heading string, values []string) {
	column := make([]string, 0, len(values)+1)
	column = append(column, heading)
	column = append(column, values...)
	t.Add(column)
}

// Rows returns the accumulated table, one slice per row.
func (t *TableBuilder) Rows() [][]string {
	return t.rows
}
