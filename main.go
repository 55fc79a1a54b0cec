package main

import "github.com/avagut/dynamic-user-menus/cmd"

func main() {
	cmd.Execute()
}
