package main

import "github.com/willpenman/llm-philosophy/cmd"

func main() {
	cmd.Execute()
}
