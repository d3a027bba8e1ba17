package main

import "github.com/mvp-joe/code-critic/internal/cli"

func main() {
	cli.Execute()
}
