package reswirl

import "io"

// SymbolRecord represents one entry in a Sphinx object inventory: a named,
// documented entity together with its classification and location within
// the documentation site.
type SymbolRecord struct {
	// Fully qualified symbol identifier, e.g. "polars.DataFrame.filter".
	Name string `json:"name"`

	// Documentation domain, e.g. "py" or "std".
	Domain string `json:"domain"`

	// Role within the domain, e.g. "class", "function", "label".
	Role string `json:"role"`

	// Display priority as encoded by the source format. Commonly 1;
	// -1 means "use default". Round-trips unchanged.
	Priority int `json:"priority"`

	// URI fragment relative to the documentation base, with the source
	// format's trailing-"$" placeholder already expanded to Name.
	Location string `json:"location"`

	// Human-facing label. The source format's "-" sentinel is expanded
	// to Name during decoding, so this is never the sentinel.
	DisplayName string `json:"displayName"`
}

// DomainRole returns the combined "domain:role" tag as written in the
// inventory wire format.
func (r SymbolRecord) DomainRole() string {
	return r.Domain + ":" + r.Role
}

// Validate returns an error if the record contains invalid fields.
func (r SymbolRecord) Validate() error {
	if r.Name == "" {
		return Errorf(EINVALID, "symbol name required")
	}
	if r.Domain == "" || r.Role == "" {
		return Errorf(EINVALID, "symbol %q: domain and role required", r.Name)
	}
	return nil
}

// RecordReader is a single-pass pull cursor over decoded symbol records.
// Next returns io.EOF after the final record; a reader is finite and not
// restartable once fully consumed.
type RecordReader interface {
	Next() (SymbolRecord, error)
}

// readAll drains a RecordReader, preserving stream order.
func readAll(rr RecordReader) ([]SymbolRecord, error) {
	var records []SymbolRecord
	for {
		rec, err := rr.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
