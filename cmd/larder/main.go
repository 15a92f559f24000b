// Command larder is the CLI for the Larder persistence system.
package main

import "github.com/mesh-intelligence/larder/internal/cli"

func main() {
	cli.Execute()
}
