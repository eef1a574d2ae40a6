package main

import "github.com/mediaporter/mediaporter/cmd"

func main() {
	cmd.Execute()
}
