package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskboardx/core/cmd/api/commands"
)

// @title TaskBoardX API
// @version 1.0
// @description Kanban projects, tasks and the local profile

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskboardx",
		Short:         "TaskBoardX API Server",
		Long:          `TaskBoardX is a kanban project and task manager. Its data lives in one of several key-value backends selected by STORAGE_DRIVER.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewProjectCommand())
	rootCmd.AddCommand(commands.NewTaskCommand())
	rootCmd.AddCommand(commands.NewProfileCommand())
	rootCmd.AddCommand(commands.NewRepairCommand())
	rootCmd.AddCommand(commands.NewStoreCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
