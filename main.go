package main

import "github.com/fachebot/talk-digest/cmd"

func main() {
	cmd.Execute()
}
