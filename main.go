package main

import "github.com/hurou927/text2sql/cmd"

func main() {
	cmd.Execute()
}
