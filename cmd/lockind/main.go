// Package main provides the CLI entrypoint for lockind.
package main

func main() {
	Execute()
}
