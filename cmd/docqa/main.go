// Command docqa answers questions about a single document over HTTP or in
// the terminal.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
