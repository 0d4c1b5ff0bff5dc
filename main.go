package main

import "github.com/KaramelBytes/fleetrisk-cli/cmd"

func main() {
	cmd.Execute()
}
