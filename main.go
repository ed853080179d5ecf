package main

import (
	"github.com/joho/godotenv"

	"playout-engine/cmd"
)

func main() {
	// Optional .env for local development
	godotenv.Load()

	cmd.Execute()
}
