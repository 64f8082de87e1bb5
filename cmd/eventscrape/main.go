package main

import (
	"os"

	"github.com/pfrederiksen/eventscrape/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
