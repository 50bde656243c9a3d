// Command movienight plans family movie nights and keeps their memories.
package main

import "github.com/mesh-intelligence/movienight/internal/cli"

func main() {
	cli.Execute()
}
