package main

import "github.com/ademuri/spotify-export-tools/cmd"

func main() {
	cmd.Execute()
}
