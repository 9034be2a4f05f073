package main

import "github.com/LeJamon/xrplgate/internal/cli"

func main() {
	cli.Execute()
}
