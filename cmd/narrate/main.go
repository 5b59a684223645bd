package main

import "github.com/lexiqai/narration-pipeline/internal/cli"

func main() {
	cli.Main()
}
