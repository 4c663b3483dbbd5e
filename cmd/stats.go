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
	"gopkg.in/yaml.v3"

	"github.com/ademuri/spotify-export-tools/internal/store"
)

var statsFormat string

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints summary statistics for a project",
	Long:  `Summarizes the cleaned tables. Run process first.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := printStats(os.Stdout, viper.GetString("database"), viper.GetString("project"), statsFormat)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsFormat, "format", "table", "Output format: table or yaml")
}

func printStats(out io.Writer, dbPath, project, format string) error {
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

	summary, err := db.Summarize(projectID, project)
	if err != nil {
		return err
	}

	switch format {
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(summary); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return encoder.Close()

	case "table":
		table := tablewriter.NewWriter(out)
		table.Header([]string{"Statistic", "Value"})
		rows := [][]string{
			{"Artists", fmt.Sprintf("%d", summary.Artists)},
			{"Tracks", fmt.Sprintf("%d", summary.Tracks)},
			{"Listens", fmt.Sprintf("%d", summary.Listens)},
			{"Hours listened", fmt.Sprintf("%.1f", summary.HoursTotal)},
			{"Avg listen (sec)", fmt.Sprintf("%.1f", summary.AvgListenSeconds)},
			{"Avg full listen (sec)", fmt.Sprintf("%.1f", summary.AvgFullListenSeconds)},
			{"First listen", summary.FirstListen},
			{"Last listen", summary.LastListen},
			{"Days in range", fmt.Sprintf("%d", summary.DaysInRange)},
			{"Days with listens", fmt.Sprintf("%d", summary.DaysWithListens)},
			{"Days missing", fmt.Sprintf("%d", summary.DaysMissing)},
			{"Skip durations", fmt.Sprintf("%d", summary.SkipDurations)},
			{"Non-skip durations", fmt.Sprintf("%d", summary.NonSkipDurations)},
		}
		for _, row := range rows {
			if err := table.Append(row); err != nil {
				return fmt.Errorf("rendering table: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown format %q (expected table or yaml)", format)
	}
}
