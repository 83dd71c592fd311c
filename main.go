package main

import "github.com/Rawan567/blood-diagnosis-api/cmd"

func main() {
	cmd.Execute()
}
