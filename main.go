package main

import "github.com/omotivaudio/vocalbooth/cmd"

func main() {
	cmd.Execute()
}
