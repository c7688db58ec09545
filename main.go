package main

import "github.com/jsphweid/mididf/cmd"

func main() {
	cmd.Execute()
}
