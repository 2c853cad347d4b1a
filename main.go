package main

import "github.com/Alijeyrad/playcare_backend/cmd"

func main() {
	cmd.Execute()
}
