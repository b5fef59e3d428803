package main

import "github.com/jsphweid/simon/cmd"

func main() {
	cmd.Execute()
}
