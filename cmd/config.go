/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-export-tools/internal/analysis"
	"github.com/ademuri/spotify-export-tools/internal/store"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspects and changes a project's thresholds",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the project's configuration values",
	Run: func(cmd *cobra.Command, args []string) {
		err := listConfig(os.Stdout, viper.GetString("database"), viper.GetString("project"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [name] [value]",
	Short: "Sets one configuration value",
	Long:  `Changes take effect the next time process runs.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := setConfig(viper.GetString("database"), viper.GetString("project"), args[0], args[1])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
}

func listConfig(out io.Writer, dbPath, project string) error {
	if project == "" {
		return fmt.Errorf("no project specified - use --project")
	}

	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	projectID, err := db.ProjectID(project)
	if err != nil {
		return fmt.Errorf("project %q does not exist - run create first", project)
	}

	values, err := db.GetConfig(projectID)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header([]string{"Name", "Value"})
	for _, name := range analysis.ConfigNames {
		value, ok := values[name]
		if !ok {
			value = "(missing)"
		}
		if err := table.Append([]string{name, value}); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

func setConfig(dbPath, project, name, value string) error {
	if project == "" {
		return fmt.Errorf("no project specified - use --project")
	}

	if err := analysis.ValidateConfigValue(name, value); err != nil {
		return err
	}

	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	projectID, err := db.ProjectID(project)
	if err != nil {
		return fmt.Errorf("project %q does not exist - run create first", project)
	}

	if err := db.SetConfig(projectID, name, value); err != nil {
		return err
	}

	fmt.Printf("Set %s = %s for project %q\n", name, value, project)
	return nil
}
