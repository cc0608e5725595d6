// iota-cli installs and activates signed, encrypted firmware packages on
// an A/B-partitioned device.
package main

import (
	"os"

	"iota-cli/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
