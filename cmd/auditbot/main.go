package main

import "github.com/andrey78787878/audit/internal/cli"

func main() {
	cli.Execute()
}
