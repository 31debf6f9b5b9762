package main

import (
	"os"

	"github.com/wms-platform/business-rules-service/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewRootCommand(nil), os.Args[1:], os.Stderr))
}
