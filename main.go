package main

import "github.com/iksnae/agent-sessions/cmd"

func main() {
	cmd.Execute()
}
