package main

import "fmt"

// Run executes the locate command.
func (c *LocateCmd) Run(deps *Dependencies) error {
	loc, err := deps.Resolver.Locate(deps.Ctx, c.Package)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(deps.Stdout, loc.InventoryURL)
	return err
}
