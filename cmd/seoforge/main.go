package main

import (
	"fmt"
	"os"

	"seoforge/cmd/handlers"
	"seoforge/internal/logger"
)

func main() {
	logger.Init()

	if err := handlers.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
