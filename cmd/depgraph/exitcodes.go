package main

// Exit codes for the depgraph CLI.
const (
	ExitSuccess        = 0 // Success
	ExitError          = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError    = 2 // Configuration error (missing config, invalid paths)
	ExitNotFound       = 3 // Paper not found in Semantic Scholar
	ExitNoDependencies = 4 // Paper found but no dependencies identified
)
