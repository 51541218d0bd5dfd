// Command docq is the entry point for the docq document question-answering
// system. It ingests PDF documents into a vector store and answers natural
// language questions over them, via CLI commands or an HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/docq-ai/docq-go/cmd/docq/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
