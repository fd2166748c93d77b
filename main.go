package main

import (
	"os"

	"github.com/novem-io/novem-webview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
