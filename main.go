package main

import (
	"os"
	"strconv"

	"modpack-editor/cmd"
	"modpack-editor/logger"

	_ "go.uber.org/automaxprocs"
)

func main() {
	debug, _ := strconv.ParseBool(os.Getenv("EDITOR_DEBUG"))
	logger.InitLogger(debug) // Initialize the logger first
	defer logger.Sync()      // Ensure logs are flushed on exit
	cmd.Execute()
}
