package main

import "github.com/jmtucker/resonate/cmd"

func main() {
	cmd.Execute()
}
