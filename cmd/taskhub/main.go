package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskhub/core/cmd/taskhub/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskhub",
		Short: "TaskHub command server",
		Long:  `TaskHub is a networked multi-user task service: clients register, log in, and manage personal tasks and shared collaborations over a line-oriented text protocol.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewClientCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
