package main

import "careerpath/internal/cli"

func main() {
	cli.Execute()
}
