// Package main is the entry point for the streamhub application.
package main

import (
	"github.com/samber/lo"
	"github.com/streamhub-cli/streamhub/cmd"
	"github.com/streamhub-cli/streamhub/config"
	"github.com/streamhub-cli/streamhub/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
