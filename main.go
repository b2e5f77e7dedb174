package main

import "archive-backend/cmd"

func main() {
	cmd.Run()
}
