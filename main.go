package main

import "github.com/KaramelBytes/edakit/cmd"

func main() {
	cmd.Execute()
}
