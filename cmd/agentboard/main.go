package main

import "github.com/vietddude/agentboard/internal/cli"

func main() {
	cli.Execute()
}
