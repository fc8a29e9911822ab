// combatlog - Combat Log Importer
//
// combatlog parses game combat logs, stores every record in SQLite and
// serves them back for querying.
package main

import (
	"os"

	"github.com/ccollicutt/combatlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
