package main

import "github.com/Mohsinsiddi/trexctl/cmd"

func main() {
	cmd.Execute()
}
