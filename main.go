package main

import "commitscore/cmd"

func main() {
	cmd.Execute()
}
