package main

import "github.com/Pinkesh2905/FaceTrace/cmd"

func main() {
	cmd.Execute()
}
