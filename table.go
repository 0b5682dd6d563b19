package reswirl

// DocResult is the per-row outcome of documentation enrichment. Exactly one
// of Text or Err is meaningful: a successful fetch populates Text, a failed
// fetch records the reason in Err without affecting other rows.
type DocResult struct {
	Text string `json:"text,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Table is the immutable in-memory representation of a decoded inventory.
// Row order is the decode-stream order, which is stable across runs given
// identical input bytes. Transformations return new tables; no operation
// mutates an existing Table.
type Table struct {
	project       string
	version       string
	formatVersion int
	rows          []SymbolRecord
	docs          []DocResult // nil unless enriched; aligned with rows
	duplicates    int
}

// dupKey identifies a symbol for duplicate detection. Name is unique per
// (domain, role) pair within one well-formed inventory snapshot.
type dupKey struct {
	name   string
	domain string
	role   string
}

// BuildTable materializes a table from a decoded record stream, consuming
// it exactly once in order. Duplicate (name, domain, role) triples are a
// data-quality signal: all occurrences are retained in row order and the
// number of extra occurrences is reported via DuplicateCount.
func BuildTable(rr RecordReader, project, version string, formatVersion int) (*Table, error) {
	records, err := readAll(rr)
	if err != nil {
		return nil, err
	}

	seen := make(map[dupKey]struct{}, len(records))
	duplicates := 0
	for _, rec := range records {
		k := dupKey{name: rec.Name, domain: rec.Domain, role: rec.Role}
		if _, ok := seen[k]; ok {
			duplicates++
			continue
		}
		seen[k] = struct{}{}
	}

	return &Table{
		project:       project,
		version:       version,
		formatVersion: formatVersion,
		rows:          records,
		duplicates:    duplicates,
	}, nil
}

// Project returns the inventory's project name.
func (t *Table) Project() string { return t.project }

// Version returns the inventory's project version.
func (t *Table) Version() string { return t.version }

// FormatVersion returns the inventory format version (2 for the
// compressed format).
func (t *Table) FormatVersion() int { return t.formatVersion }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// DuplicateCount returns the number of rows whose (name, domain, role)
// triple duplicates an earlier row.
func (t *Table) DuplicateCount() int { return t.duplicates }

// Row returns the record at index i.
func (t *Table) Row(i int) SymbolRecord { return t.rows[i] }

// Rows returns a fresh copy of all rows in table order. Each call returns
// an independent slice, so iteration is restartable and callers cannot
// mutate the table through the result.
func (t *Table) Rows() []SymbolRecord {
	out := make([]SymbolRecord, len(t.rows))
	copy(out, t.rows)
	return out
}

// Enriched reports whether the table carries a documentation column.
func (t *Table) Enriched() bool { return t.docs != nil }

// Doc returns the documentation result for row i. The second return value
// is false when the table has not been enriched.
func (t *Table) Doc(i int) (DocResult, bool) {
	if t.docs == nil {
		return DocResult{}, false
	}
	return t.docs[i], true
}

// Filter returns a new table containing the rows for which pred returns
// true, preserving row order, metadata, and (when present) the aligned
// documentation column. The duplicate count is recomputed over the
// surviving rows.
func (t *Table) Filter(pred func(SymbolRecord) bool) *Table {
	var rows []SymbolRecord
	var docs []DocResult
	if t.docs != nil {
		docs = []DocResult{}
	}
	seen := make(map[dupKey]struct{})
	duplicates := 0

	for i, rec := range t.rows {
		if !pred(rec) {
			continue
		}
		rows = append(rows, rec)
		if t.docs != nil {
			docs = append(docs, t.docs[i])
		}
		k := dupKey{name: rec.Name, domain: rec.Domain, role: rec.Role}
		if _, ok := seen[k]; ok {
			duplicates++
		} else {
			seen[k] = struct{}{}
		}
	}

	return &Table{
		project:       t.project,
		version:       t.version,
		formatVersion: t.formatVersion,
		rows:          rows,
		docs:          docs,
		duplicates:    duplicates,
	}
}

// WithDocs returns a new table carrying docs as its documentation column.
// The slice must be aligned with the table's rows.
func (t *Table) WithDocs(docs []DocResult) (*Table, error) {
	if len(docs) != len(t.rows) {
		return nil, Errorf(EINVALID, "documentation column has %d entries for %d rows", len(docs), len(t.rows))
	}
	copied := make([]DocResult, len(docs))
	copy(copied, docs)

	return &Table{
		project:       t.project,
		version:       t.version,
		formatVersion: t.formatVersion,
		rows:          t.rows,
		docs:          copied,
		duplicates:    t.duplicates,
	}, nil
}
