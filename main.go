package main

import "github.com/KaramelBytes/statloom/cmd"

func main() {
	cmd.Execute()
}
