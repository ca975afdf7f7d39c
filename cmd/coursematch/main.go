// Command coursematch recommends university courses from a syllabus catalog.
// It imports scraped syllabi, builds the vector index, and answers student
// questions from the CLI or over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/coursematch/cmd/coursematch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
