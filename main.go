package main

import "github.com/egopanda/agency/cmd"

func main() {
	cmd.Execute()
}
