package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lmmx/reswirl"
)

// Run executes the cache clear command.
func (c *CacheClearCmd) Run(deps *Dependencies) error {
	if deps.Cache == nil {
		return reswirl.Errorf(reswirl.EINVALID, "cache database is unavailable")
	}

	var (
		n   int
		err error
	)
	if c.Package != "" {
		n, err = deps.Cache.InvalidatePackage(deps.Ctx, c.Package)
	} else {
		n, err = deps.Cache.Clear(deps.Ctx)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(deps.Stdout, "removed %d cache entr%s\n", n, plural(n, "y", "ies"))
	return err
}

// Run executes the cache info command.
func (c *CacheInfoCmd) Run(deps *Dependencies) error {
	if deps.Cache == nil {
		return reswirl.Errorf(reswirl.EINVALID, "cache database is unavailable")
	}

	entries, err := deps.Cache.Entries(deps.Ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err = fmt.Fprintln(deps.Stdout, "cache is empty")
		return err
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"PACKAGE", "URL", "SIZE", "FINGERPRINT", "FETCHED"}, "\t"))
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			e.Package, e.URL, e.Size, e.Fingerprint,
			e.FetchedAt.UTC().Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(deps.Stdout, "\n%d entr%s\n", len(entries), plural(len(entries), "y", "ies"))
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
