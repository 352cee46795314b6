package main

import (
	"log"

	"github.com/ralphvalcin/decentralize-video-app-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
