// Command gateway runs the read-oriented REST gateway over a
// Substrate-family node's JSON-RPC interface.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{Use: "gateway"}
	root.AddCommand(serveCmd())
	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("gateway exited")
		os.Exit(1)
	}
}
