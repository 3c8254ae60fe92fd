package main

import "github.com/assaykit/layoutdump/cmd"

func main() {
	cmd.Execute()
}
