// Package sphinx decodes the Sphinx object inventory wire format
// (objects.inv): a four-line plain-text header followed by a single
// zlib-compressed stream of newline-delimited symbol records.
package sphinx

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/lmmx/reswirl"
)

const (
	headerVersion1 = "# Sphinx inventory version 1"
	headerVersion2 = "# Sphinx inventory version 2"
	projectPrefix  = "# Project: "
	versionPrefix  = "# Version: "

	// A location ending in "$" abbreviates "this page anchor is the
	// symbol's own name".
	locationPlaceholder = "$"

	// A display name of "-" means "same as the symbol name".
	displaySentinel = "-"

	// Neutral priority used when the priority field fails to parse.
	// Priority does not affect identity or lookup correctness.
	defaultPriority = 1

	// Records are one line each, but display names are unbounded text.
	maxLineBytes = 1 << 20
)

// Header holds the inventory-level metadata from the plain-text preamble.
type Header struct {
	Project       string
	Version       string
	FormatVersion int
}

// Reader is a lazy pull cursor over the records of one inventory. It is
// finite, single-pass, and not restartable: once Next has returned io.EOF
// (or a terminal error) it keeps returning it.
type Reader struct {
	header  Header
	scanner *bufio.Scanner
	zr      io.ReadCloser
	line    int
	err     error
}

var _ reswirl.RecordReader = (*Reader)(nil)

// Decode validates the inventory header and prepares a Reader over the
// compressed record stream. Only format version 2 is supported; version 1
// inventories are rejected with a clear error.
func Decode(raw []byte) (*Reader, error) {
	header, offset, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw[offset:]))
	if err != nil {
		return nil, reswirl.Errorf(reswirl.EFORMAT, "invalid zlib stream at byte offset %d: %v", offset, err)
	}

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	return &Reader{
		header:  header,
		scanner: scanner,
		zr:      zr,
	}, nil
}

// Header returns the inventory-level metadata.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next symbol record in stream order. It skips blank
// lines, expands the location placeholder and display-name sentinel, and
// fails with EFORMAT on any malformed record. After the final record it
// returns io.EOF.
func (r *Reader) Next() (reswirl.SymbolRecord, error) {
	if r.err != nil {
		return reswirl.SymbolRecord{}, r.err
	}

	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseRecord(line, r.line)
		if err != nil {
			r.fail(err)
			return reswirl.SymbolRecord{}, err
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		terr := reswirl.Errorf(reswirl.EFORMAT, "reading compressed payload after line %d: %v", r.line, err)
		r.fail(terr)
		return reswirl.SymbolRecord{}, terr
	}

	r.fail(io.EOF)
	return reswirl.SymbolRecord{}, io.EOF
}

// fail records a terminal state and releases the decompressor.
func (r *Reader) fail(err error) {
	r.err = err
	if r.zr != nil {
		_ = r.zr.Close()
		r.zr = nil
	}
}

// parseHeader validates the four-line preamble and returns the byte offset
// where the compressed payload begins.
func parseHeader(raw []byte) (Header, int, error) {
	offset := 0

	line, next, err := readLine(raw, offset)
	if err != nil {
		return Header{}, 0, err
	}
	switch line {
	case headerVersion2:
		// Supported.
	case headerVersion1:
		return Header{}, 0, reswirl.Errorf(reswirl.EFORMAT, "inventory format version 1 is not supported")
	default:
		return Header{}, 0, reswirl.Errorf(reswirl.EFORMAT, "unrecognized inventory header %q at byte offset 0", truncate(line, 64))
	}
	offset = next

	line, next, err = readLine(raw, offset)
	if err != nil {
		return Header{}, 0, err
	}
	project, ok := strings.CutPrefix(line, projectPrefix)
	if !ok {
		return Header{}, 0, reswirl.Errorf(reswirl.EFORMAT, "missing project line at byte offset %d", offset)
	}
	offset = next

	line, next, err = readLine(raw, offset)
	if err != nil {
		return Header{}, 0, err
	}
	version, ok := strings.CutPrefix(line, versionPrefix)
	if !ok {
		return Header{}, 0, reswirl.Errorf(reswirl.EFORMAT, "missing version line at byte offset %d", offset)
	}
	offset = next

	line, next, err = readLine(raw, offset)
	if err != nil {
		return Header{}, 0, err
	}
	if !strings.Contains(line, "zlib") {
		return Header{}, 0, reswirl.Errorf(reswirl.EFORMAT, "missing compression announcement at byte offset %d", offset)
	}
	offset = next

	return Header{Project: project, Version: version, FormatVersion: 2}, offset, nil
}

// readLine extracts the newline-terminated line starting at offset and
// returns it without the terminator, plus the offset of the next line.
func readLine(raw []byte, offset int) (string, int, error) {
	if offset >= len(raw) {
		return "", 0, reswirl.Errorf(reswirl.EFORMAT, "truncated inventory header at byte offset %d", offset)
	}
	idx := bytes.IndexByte(raw[offset:], '\n')
	if idx < 0 {
		return "", 0, reswirl.Errorf(reswirl.EFORMAT, "truncated inventory header at byte offset %d", offset)
	}
	line := string(raw[offset : offset+idx])
	return strings.TrimSuffix(line, "\r"), offset + idx + 1, nil
}

// parseRecord splits one decompressed line into a symbol record. The split
// is bounded at five parts: the display name is the remainder of the line
// and may itself contain whitespace.
func parseRecord(line string, lineNo int) (reswirl.SymbolRecord, error) {
	parts := strings.SplitN(line, " ", 5)
	if len(parts) < 5 {
		return reswirl.SymbolRecord{}, reswirl.Errorf(reswirl.EFORMAT, "line %d: expected 5 fields, got %d", lineNo, len(parts))
	}

	name, domainRole, priorityField, location, display := parts[0], parts[1], parts[2], parts[3], parts[4]
	if name == "" || domainRole == "" || location == "" || display == "" {
		return reswirl.SymbolRecord{}, reswirl.Errorf(reswirl.EFORMAT, "line %d: empty field in record", lineNo)
	}

	domain, role, ok := strings.Cut(domainRole, ":")
	if !ok || domain == "" || role == "" {
		return reswirl.SymbolRecord{}, reswirl.Errorf(reswirl.EFORMAT, "line %d: malformed domain:role field %q", lineNo, domainRole)
	}

	priority, err := strconv.Atoi(priorityField)
	if err != nil {
		priority = defaultPriority
	}

	if strings.HasSuffix(location, locationPlaceholder) {
		location = location[:len(location)-len(locationPlaceholder)] + name
	}
	if display == displaySentinel {
		display = name
	}

	return reswirl.SymbolRecord{
		Name:        name,
		Domain:      domain,
		Role:        role,
		Priority:    priority,
		Location:    location,
		DisplayName: display,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
