// Command bookqa runs the store QA suite.
package main

import "github.com/bookqa/bookqa/pkg/cli"

func main() {
	cli.Execute()
}
