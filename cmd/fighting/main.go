// Command fighting serves the hello API, calls remote actions and checks
// documentation blocks.
package main

func main() {
	Execute()
}
