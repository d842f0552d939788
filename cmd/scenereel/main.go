package main

import "github.com/forPelevin/scenereel/internal/cli"

func main() {
	cli.Main()
}
