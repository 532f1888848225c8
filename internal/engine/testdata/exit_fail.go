package main

import (
	"fmt"
	"os"
)

// Exits immediately with a failure, the way a launcher with a bad model
// path or unknown flags would.
func main() {
	fmt.Fprintln(os.Stderr, "error: unrecognized arguments")
	os.Exit(1)
}
