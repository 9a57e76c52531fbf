package main

import "phptdd/internal/cli"

func main() {
	cli.Execute()
}
