// Command slot-mailer-async checks districts configured by id, querying all of
// them concurrently, and mails the results.
package main

import (
	"os"

	"cowin-slot-mailer/internal/app"
	"cowin-slot-mailer/internal/config"
)

func main() {
	os.Exit(app.Main("slot-mailer-async", config.VariantDirect, os.Args[1:]))
}
