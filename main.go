package main

import "github.com/gitmonhq/gitmon/cmd"

func main() {
	cmd.Execute()
}
