package main

import "github.com/upb/readers-hub/cmd/readers-hub/cmd"

func main() {
	cmd.Execute()
}
