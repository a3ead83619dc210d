package main

import (
	"github.com/mchmarny/mobusage/pkg/cli"
)

func main() {
	cli.Execute()
}
