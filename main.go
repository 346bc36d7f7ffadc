package main

import "github.com/timvw/device-patrol/cmd"

func main() {
	cmd.Execute()
}
