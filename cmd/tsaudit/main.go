package main

import (
	"block-ts-audit/internal/cli"
)

func main() {
	cli.Execute()
}
