package main

import "github.com/Taichi-iskw/audiorefresh/cmd"

func main() {
	cmd.Execute()
}
