package main

import "github.com/artefactual-labs/mets-reader-writer-sub000/metsrw/cmd"

func main() {
	cmd.Execute()
}
