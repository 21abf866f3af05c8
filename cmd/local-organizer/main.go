package main

import "github.com/vitoramaral10/local-organizer/internal/cli"

func main() {
	cli.Execute()
}
