// Command storybench collects and annotates LLM prompt/response submissions.
package main

import "github.com/mesh-intelligence/storybench/internal/cli"

func main() {
	cli.Execute()
}
