package main

import "canvas-backend/interfaces/cli"

func main() {
	cli.Execute()
}
