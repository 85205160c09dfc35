package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	_ "cachegate/docs"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cachegate <config-path|env>",
		Short: "cachegate proxy",
		Long:  "cachegate fronts S3/Azure object stores with a size-bounded LRU cache behind presigned or bearer auth.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(args[0])
		},
	}
	rootCmd.AddCommand(KeygenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
