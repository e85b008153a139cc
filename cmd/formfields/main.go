package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		log.Fatalf("formfields: %v", err)
	}
}
