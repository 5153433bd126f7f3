// SPDX-License-Identifier: MPL-2.0

// Command modweave sorts and checks RimWorld mod lists.
package main

import cmd "github.com/modweave/modweave/cmd/modweave"

func main() {
	cmd.Execute()
}
