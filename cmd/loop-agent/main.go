package main

import "github.com/siva673/loop-agent/internal/cli"

func main() {
	cli.Execute()
}
