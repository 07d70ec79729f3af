package main

import "github.com/AreTaj/Migraine-Navigator/internal/cli"

func main() {
	cli.Execute()
}
