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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-export-tools/internal/analysis"
	"github.com/ademuri/spotify-export-tools/internal/store"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Creates a new project",
	Long: `Creates a project in the local database and seeds its configuration
with the skip-classification thresholds.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runCreate(viper.GetString("database"), args[0], createConfig())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	defaults := analysis.DefaultConfig()
	createCmd.Flags().String("min-track-length", defaults[analysis.MinNonSkipTrackLength],
		"Minimum duration (ms) for the fallback non-skip candidate")
	createCmd.Flags().String("min-frequency", defaults[analysis.MinNonSkipFrequency],
		"Minimum repeat count for the frequency stage")
	createCmd.Flags().String("min-frequency-percent", defaults[analysis.MinNonSkipFrequencyPercent],
		"Minimum share of a track's listens for the frequency stage")
	createCmd.Flags().String("absolute-frequency", defaults[analysis.AbsoluteNonSkipFrequency],
		"Repeat count that always qualifies as non-skip")
	createCmd.Flags().String("error-margin", defaults[analysis.SkipDurationErrorMargin],
		"Proximity tolerance below the shortest accepted duration")

	viper.BindPFlag("min-track-length", createCmd.Flags().Lookup("min-track-length"))
	viper.BindPFlag("min-frequency", createCmd.Flags().Lookup("min-frequency"))
	viper.BindPFlag("min-frequency-percent", createCmd.Flags().Lookup("min-frequency-percent"))
	viper.BindPFlag("absolute-frequency", createCmd.Flags().Lookup("absolute-frequency"))
	viper.BindPFlag("error-margin", createCmd.Flags().Lookup("error-margin"))
}

func createConfig() map[string]string {
	return map[string]string{
		analysis.MinNonSkipTrackLength:      viper.GetString("min-track-length"),
		analysis.MinNonSkipFrequency:        viper.GetString("min-frequency"),
		analysis.MinNonSkipFrequencyPercent: viper.GetString("min-frequency-percent"),
		analysis.AbsoluteNonSkipFrequency:   viper.GetString("absolute-frequency"),
		analysis.SkipDurationErrorMargin:    viper.GetString("error-margin"),
	}
}

func runCreate(dbPath string, name string, config map[string]string) error {
	for cfg, value := range config {
		if err := analysis.ValidateConfigValue(cfg, value); err != nil {
			return err
		}
	}

	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	id, err := db.CreateProject(name, config)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	fmt.Printf("Project %q ready (id %d)\n", name, id)
	return nil
}
