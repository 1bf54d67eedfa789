package main

import "github.com/Norgate-AV/lessbuild/cmd"

func main() {
	cmd.Execute()
}
