package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/lmmx/reswirl"
	"github.com/lmmx/reswirl/enrich"
)

// Run executes the inventory command.
func (c *InventoryCmd) Run(deps *Dependencies) error {
	cfg := reswirl.Config{
		ForceRefresh:  c.ForceRefresh,
		Enrich:        c.Enrich,
		Timeout:       c.Timeout,
		FallbackHosts: c.Fallback,
		Concurrency:   c.Concurrency,
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = deps.Concurrency
	}

	loc, err := deps.Resolver.LocateFor(deps.Ctx, c.Package, cfg)
	if err != nil {
		return err
	}

	if c.Enrich {
		deps.Resolver.Enricher = &enrich.Enricher{
			FetchDoc:    newDocFetcher(deps.Resolver.Fetcher, loc.BaseURL),
			Concurrency: cfg.Concurrency,
		}
	}

	table, err := deps.Resolver.GetInventoryAt(deps.Ctx, loc, cfg)
	if err != nil {
		return err
	}

	table = c.applyFilters(table)

	if n := table.DuplicateCount(); n > 0 {
		fmt.Fprintf(deps.Stderr, "warning: inventory contains %d duplicate symbol(s)\n", n)
	}

	switch c.Format {
	case "csv":
		return writeCSV(deps.Stdout, table)
	case "jsonl":
		return writeJSONL(deps.Stdout, table)
	default:
		return writeText(deps.Stdout, table)
	}
}

// applyFilters narrows the table by the domain/role/name flags.
func (c *InventoryCmd) applyFilters(table *reswirl.Table) *reswirl.Table {
	if c.Domain == "" && c.Role == "" && c.Contains == "" {
		return table
	}
	return table.Filter(func(r reswirl.SymbolRecord) bool {
		if c.Domain != "" && r.Domain != c.Domain {
			return false
		}
		if c.Role != "" && r.Role != c.Role {
			return false
		}
		if c.Contains != "" && !strings.Contains(r.Name, c.Contains) {
			return false
		}
		return true
	})
}

func columns(t *reswirl.Table) []string {
	cols := []string{"name", "domain", "role", "priority", "location", "display_name"}
	if t.Enriched() {
		cols = append(cols, "doc", "doc_error")
	}
	return cols
}

func rowValues(t *reswirl.Table, i int) []string {
	rec := t.Row(i)
	values := []string{
		rec.Name, rec.Domain, rec.Role,
		strconv.Itoa(rec.Priority),
		rec.Location, rec.DisplayName,
	}
	if doc, ok := t.Doc(i); ok {
		values = append(values, doc.Text, doc.Err)
	}
	return values
}

// writeText renders an aligned text table.
func writeText(w io.Writer, t *reswirl.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, strings.ToUpper(strings.Join(columns(t), "\t")))
	for i := range t.Len() {
		values := rowValues(t, i)
		for j, v := range values {
			// Keep multi-line documentation from breaking row alignment.
			values[j] = strings.ReplaceAll(v, "\n", " ")
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s %s: %d symbols\n", t.Project(), t.Version(), t.Len())
	return err
}

// writeCSV renders delimited values with a header row.
func writeCSV(w io.Writer, t *reswirl.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns(t)); err != nil {
		return err
	}
	for i := range t.Len() {
		if err := cw.Write(rowValues(t, i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonRow is the structured-record-per-line serialization of one row.
type jsonRow struct {
	reswirl.SymbolRecord
	Doc      string `json:"doc,omitempty"`
	DocError string `json:"docError,omitempty"`
}

// writeJSONL renders one JSON record per line.
func writeJSONL(w io.Writer, t *reswirl.Table) error {
	enc := json.NewEncoder(w)
	for i := range t.Len() {
		row := jsonRow{SymbolRecord: t.Row(i)}
		if doc, ok := t.Doc(i); ok {
			row.Doc = doc.Text
			row.DocError = doc.Err
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}
