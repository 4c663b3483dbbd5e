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
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-export-tools/internal/store"
)

var calendarMissingOnly bool

// calendarCmd represents the calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar [from] [to (optional)]",
	Short: "Prints the project's coverage calendar",
	Long: `Shows each day in the exported date range, whether it has listening
data, and whether it falls outside every download's coverage window. Date
strings look like 'yyyy', 'yyyy-mm', or 'yyyy-mm-dd'. Run process first.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := printCalendar(os.Stdout, viper.GetString("database"), viper.GetString("project"),
			args, calendarMissingOnly)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(calendarCmd)

	calendarCmd.Flags().BoolVar(&calendarMissingOnly, "missing", false,
		"Only show days with no export coverage")
}

func printCalendar(out io.Writer, dbPath, project string, args []string, missingOnly bool) error {
	if project == "" {
		return fmt.Errorf("no project specified - use --project")
	}

	var start, end time.Time
	if len(args) > 0 {
		var err error
		start, end, err = parseDateRangeFromArgs(args)
		if err != nil {
			return err
		}
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

	days, err := db.ReadCalendar(projectID)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header([]string{"Day", "Has listen", "Missing"})
	shown := 0
	for _, d := range days {
		if missingOnly && !d.IsMissing {
			continue
		}
		if !start.IsZero() && d.Date.Before(start) {
			continue
		}
		if !end.IsZero() && !d.Date.Before(end) {
			continue
		}
		err := table.Append([]string{
			d.Date.Format("2006-01-02"),
			fmt.Sprintf("%t", d.HasListen),
			fmt.Sprintf("%t", d.IsMissing),
		})
		if err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
		shown++
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	fmt.Fprintf(out, "%d of %d days shown\n", shown, len(days))
	return nil
}
