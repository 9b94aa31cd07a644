package main

import "roster-verifier/cmd"

func main() {
	cmd.Execute()
}
