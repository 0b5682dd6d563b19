package reswirl

import (
	"context"
	"strings"
)

// InventorySuffix is the conventional file name of a Sphinx object
// inventory beneath a documentation base URL.
const InventorySuffix = "objects.inv"

// ProjectMetadata holds the package registry metadata fields relevant to
// documentation discovery.
type ProjectMetadata struct {
	// Package name as known to the registry.
	Name string `json:"name"`

	// Project homepage, if published. Used as a fallback candidate when
	// no documentation URL is available.
	Homepage string `json:"homepage"`

	// Documentation URL candidates at the registry's best rank, already
	// deduplicated. More than one entry means the registry offered
	// multiple equally-ranked candidates with no way to choose between
	// them; resolution must fail rather than guess.
	DocURLs []string `json:"docUrls"`
}

// MetadataService looks up package registry metadata.
type MetadataService interface {
	// ProjectMetadata retrieves metadata for a package.
	// Returns ENOTFOUND if the registry does not know the package.
	ProjectMetadata(ctx context.Context, pkg string) (*ProjectMetadata, error)
}

// Location identifies a resolved inventory.
type Location struct {
	// Package the inventory was resolved for.
	Package string `json:"package"`

	// Documentation base URL, without the inventory suffix.
	BaseURL string `json:"baseUrl"`

	// Full URL of the objects.inv file.
	InventoryURL string `json:"inventoryUrl"`
}

// NewLocation derives a Location from a documentation base URL by
// appending the conventional inventory suffix.
func NewLocation(pkg, baseURL string) *Location {
	base := strings.TrimRight(baseURL, "/")
	return &Location{
		Package:      pkg,
		BaseURL:      base,
		InventoryURL: base + "/" + InventorySuffix,
	}
}
