/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/ecudatalog/cmd/ecudl/cmd"
)

func main() {
	cmd.Execute()
}
