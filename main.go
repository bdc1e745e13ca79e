package main

import "github.com/hochshi/vscode-python/cmd"

var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
