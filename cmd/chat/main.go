package main

import "github.com/realReloadTime/web-development/cmd/chat/cmd"

func main() {
	cmd.Execute()
}
