package main

import (
	"log"

	"github.com/ejcarter/paperboy/cmd/paperboyctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
