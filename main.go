package main

import (
	"github.com/snapgather/snapgather/cmd"
	"github.com/snapgather/snapgather/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
