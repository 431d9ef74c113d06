package main

import "github.com/nfrund/chaosarena/cmd/arena/cmd"

func main() {
	cmd.Execute()
}
