package main

import (
	"os"

	"snk/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
