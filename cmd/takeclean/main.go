package main

import "github.com/forPelevin/takeclean/internal/cli"

func main() {
	cli.Main()
}
