package main

import "github.com/moccore/solver/cmd"

func main() {
	cmd.Execute()
}
