package main

import "github.com/pt3002/CN-Project/cmd/loadtest/cmd"

func main() {
	cmd.Execute()
}
