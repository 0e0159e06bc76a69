package main

import "vm-transcriber/cmd/vmt/cmd"

func main() {
	cmd.Execute()
}
