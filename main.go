package main

import "github.com/fragmede/purse/internal/cli"

func main() {
	cli.Execute()
}
