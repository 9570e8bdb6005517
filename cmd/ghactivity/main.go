// Command ghactivity prints a summary of a GitHub user's recent public
// activity, memoizing the API response in a small on-disk cache.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}
