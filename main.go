package main

import "site-builder/internal/cli"

func main() {
	cli.Execute()
}
