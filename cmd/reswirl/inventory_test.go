package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/lmmx/reswirl"
	main "github.com/lmmx/reswirl/cmd/reswirl"
	"github.com/lmmx/reswirl/mock"
	"github.com/lmmx/reswirl/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeInventory builds a well-formed version 2 inventory byte stream.
func encodeInventory(t *testing.T, project, version, payload string) []byte {
	t.Helper()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Sphinx inventory version 2\n")
	fmt.Fprintf(&buf, "# Project: %s\n", project)
	fmt.Fprintf(&buf, "# Version: %s\n", version)
	fmt.Fprintf(&buf, "# The remainder of this file is compressed using zlib.\n")

	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// testDeps wires a resolver over mocks that serves a fixed inventory for
// any package.
func testDeps(t *testing.T, inventory []byte) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	deps := &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
		Resolver: &resolve.Resolver{
			Metadata: &mock.MetadataService{
				ProjectMetadataFn: func(_ context.Context, pkg string) (*reswirl.ProjectMetadata, error) {
					return &reswirl.ProjectMetadata{
						Name:    pkg,
						DocURLs: []string{"https://docs.example.org"},
					}, nil
				},
			},
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, _ string) ([]byte, error) {
					return inventory, nil
				},
			},
		},
	}
	return deps, stdout, stderr
}

func TestInventoryCmd_Run(t *testing.T) {
	t.Parallel()

	inventory := encodeInventory(t, "reqs", "2.0",
		"reqs.get py:function 1 api.html#reqs.get -\n"+
			"reqs.Session py:class 1 api.html#$ Session\n"+
			"intro std:doc -1 intro.html Introduction\n")

	t.Run("renders aligned text table by default", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t, inventory)
		cmd := &main.InventoryCmd{Package: "reqs", Format: "table"}

		require.NoError(t, cmd.Run(deps))

		output := stdout.String()
		assert.Contains(t, output, "NAME")
		assert.Contains(t, output, "reqs.get")
		assert.Contains(t, output, "py")
		assert.Contains(t, output, "function")
		assert.Contains(t, output, "reqs 2.0: 3 symbols")
	})

	t.Run("renders csv with a header row", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t, inventory)
		cmd := &main.InventoryCmd{Package: "reqs", Format: "csv"}

		require.NoError(t, cmd.Run(deps))

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "name,domain,role,priority,location,display_name", lines[0])
		assert.Equal(t, "reqs.get,py,function,1,api.html#reqs.get,reqs.get", lines[1])
		assert.Equal(t, "reqs.Session,py,class,1,api.html#reqs.Session,Session", lines[2])
	})

	t.Run("renders one json record per line", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t, inventory)
		cmd := &main.InventoryCmd{Package: "reqs", Format: "jsonl"}

		require.NoError(t, cmd.Run(deps))

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 3)

		var first map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Equal(t, "reqs.get", first["name"])
		assert.Equal(t, "py", first["domain"])
		assert.Equal(t, "function", first["role"])
		assert.NotContains(t, first, "doc")
	})

	t.Run("filters by domain, role, and name substring", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t, inventory)
		cmd := &main.InventoryCmd{Package: "reqs", Format: "csv", Domain: "py", Role: "class"}

		require.NoError(t, cmd.Run(deps))

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "reqs.Session")

		deps, stdout, _ = testDeps(t, inventory)
		cmd = &main.InventoryCmd{Package: "reqs", Format: "csv", Contains: "get"}

		require.NoError(t, cmd.Run(deps))

		lines = strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "reqs.get")
	})

	t.Run("warns about duplicate symbols on stderr", func(t *testing.T) {
		t.Parallel()

		dup := encodeInventory(t, "reqs", "2.0",
			"reqs.get py:function 1 api.html#reqs.get -\n"+
				"reqs.get py:function 1 other.html#reqs.get -\n")

		deps, _, stderr := testDeps(t, dup)
		cmd := &main.InventoryCmd{Package: "reqs", Format: "csv"}

		require.NoError(t, cmd.Run(deps))
		assert.Contains(t, stderr.String(), "1 duplicate symbol")
	})

	t.Run("propagates resolution errors", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := testDeps(t, inventory)
		deps.Resolver.Metadata = &mock.MetadataService{
			ProjectMetadataFn: func(_ context.Context, pkg string) (*reswirl.ProjectMetadata, error) {
				return nil, reswirl.Errorf(reswirl.EFETCH, "registry unreachable")
			},
		}
		cmd := &main.InventoryCmd{Package: "reqs", Format: "table"}

		err := cmd.Run(deps)
		assert.Equal(t, reswirl.EFETCH, reswirl.ErrorCode(err))
	})

	t.Run("enrichment adds doc columns", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><dl>` +
			`<dt id="reqs.get">reqs.get()</dt><dd><p>Send a GET request.</p></dd>` +
			`<dt id="reqs.Session">class reqs.Session</dt><dd><p>A persistent session.</p></dd>` +
			`</dl><div role="main"><p>Intro page.</p></div></body></html>`

		deps, stdout, _ := testDeps(t, inventory)
		deps.Resolver.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) ([]byte, error) {
				if strings.HasSuffix(url, reswirl.InventorySuffix) {
					return inventory, nil
				}
				return []byte(page), nil
			},
		}
		cmd := &main.InventoryCmd{Package: "reqs", Format: "jsonl", Enrich: true, Concurrency: 2}

		require.NoError(t, cmd.Run(deps))

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 3)

		var first map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Contains(t, first["doc"], "Send a GET request.")
	})
}
