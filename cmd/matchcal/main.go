package main

import (
	"matchcal/internal/cli"
)

func main() {
	cli.Execute()
}
