package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/MrSnakeDoc/bookmarkpack/internal/app"
	"github.com/MrSnakeDoc/bookmarkpack/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print build information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ bookmarkpack stopped: %v", err)
	}
}
