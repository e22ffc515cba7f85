package main

import "github.com/dpaola2/show-notes/cmd"

func main() {
	cmd.Execute()
}
