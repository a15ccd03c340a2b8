package main

import (
	"github.com/michaelzhang78901-alt/freight-tracker/internal/cli"
)

func main() {
	cli.Execute()
}
