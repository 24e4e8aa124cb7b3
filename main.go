package main

import "github.com/kozaktomas/facerecognx/cmd"

func main() {
	cmd.Execute()
}
