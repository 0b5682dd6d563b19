// Package reswirl resolves a Python package's Sphinx object inventory
// (the objects.inv file published alongside rendered documentation) and
// materializes it as a queryable table of documented symbols. It discovers
// the inventory URL from package registry metadata, decodes the inventory's
// header-plus-zlib wire format, and exposes the result as an immutable
// table with filtering and optional per-symbol documentation enrichment.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or concern (e.g., sphinx/, pypi/, sqlite/,
// resolve/).
package reswirl
