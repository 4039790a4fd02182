package main

import "github.com/Rabahbelksier/Offers365/cmd"

func main() {
	cmd.Execute()
}
