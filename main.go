package main

import "turbopng/cmd"

func main() {
	cmd.Execute()
}
