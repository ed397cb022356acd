// Command slot-mailer resolves configured state and district names through
// the CoWIN catalogs, checks each district in turn and mails the results.
package main

import (
	"os"

	"cowin-slot-mailer/internal/app"
	"cowin-slot-mailer/internal/config"
)

func main() {
	os.Exit(app.Main("slot-mailer", config.VariantResolver, os.Args[1:]))
}
