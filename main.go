package main

import "ragline/cmd"

func main() {
	cmd.Execute()
}
