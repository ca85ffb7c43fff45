package main

import (
	"github.com/quentin-nozomi/windows-eventlog/cli"
)

// Subscribing to the Security channel requires elevated privileges
func main() {
	cli.Execute()
}
