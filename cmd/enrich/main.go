// Command enrich runs the response enhancer pipeline from the command line
// and serves it over HTTP.
package main

import (
	"fmt"
	"os"

	enricherrors "github.com/randalmurphal/enrich/errors"
)

func main() {
	root := newRootCmd(newApp(os.Stdout, os.Stderr))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", enricherrors.Wrap(err))
		os.Exit(1)
	}
}
