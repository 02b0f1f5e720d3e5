package main

import (
	"log"

	"mixtape/cmd"
)

func main() {
	cmd.Execute()
	// If Execute() had a problem, Cobra would have called os.Exit.
	log.Println("Command execution finished.")
}
