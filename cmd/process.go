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
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ademuri/spotify-export-tools/internal/analysis"
	"github.com/ademuri/spotify-export-tools/internal/store"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Rebuilds a project's cleaned tables from its imported downloads",
	Long: `Deduplicates the raw listening history, aggregates play durations per
track, classifies each duration as a skip or a genuine listen, and rebuilds
the coverage calendar. Safe to re-run; the result only depends on the
imported downloads and the project's configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runProcess(viper.GetString("database"), viper.GetString("project"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(dbPath, project string) error {
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

	// Resolve the thresholds up front: a missing config value aborts the
	// whole pass before anything is written.
	config, err := db.GetConfig(projectID)
	if err != nil {
		return err
	}
	thresholds, err := analysis.ThresholdsFromConfig(config)
	if err != nil {
		return err
	}

	fmt.Println("Cleaning streaming history...")
	raw, err := db.ReadRawListens(projectID)
	if err != nil {
		return err
	}
	listens := analysis.Deduplicate(raw)
	if err := db.ReplaceListens(projectID, listens); err != nil {
		return err
	}
	fmt.Printf("  %d raw records -> %d listens\n", len(raw), len(listens))

	fmt.Println("Aggregating track durations...")
	groups, err := db.TrackListenDurations(projectID)
	if err != nil {
		return err
	}
	stats := make(map[int64][]analysis.DurationStat, len(groups))
	var flat []analysis.DurationStat
	for track, durations := range groups {
		s := analysis.AggregateDurations(track, durations)
		stats[track] = s
		flat = append(flat, s...)
	}
	if err := db.ReplaceDurationStats(projectID, flat); err != nil {
		return err
	}

	fmt.Println("Identifying skips...")
	labeled, err := classifyAll(stats, thresholds)
	if err != nil {
		return err
	}
	if err := db.UpdateSkipLabels(labeled); err != nil {
		return err
	}

	fmt.Println("Building coverage calendar...")
	listenDates, err := db.ListenDates(projectID)
	if err != nil {
		return err
	}
	downloadEnds, err := db.DownloadEndDates(projectID)
	if err != nil {
		return err
	}
	calendar := analysis.BuildCalendar(listenDates, downloadEnds)
	if err := db.ReplaceCalendar(projectID, calendar); err != nil {
		return err
	}

	fmt.Printf("Processed project %q: %d tracks, %d duration buckets, %d calendar days\n",
		project, len(stats), len(flat), len(calendar))
	return nil
}

// classifyAll runs the skip classifier for each track. Tracks are
// independent, so they're sharded across workers; each goroutine only
// touches its own result slot.
func classifyAll(stats map[int64][]analysis.DurationStat, t analysis.Thresholds) ([]analysis.DurationStat, error) {
	tracks := make([]int64, 0, len(stats))
	for track := range stats {
		tracks = append(tracks, track)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i] < tracks[j] })

	results := make([][]analysis.DurationStat, len(tracks))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, track := range tracks {
		i, track := i, track
		g.Go(func() error {
			results[i] = analysis.ClassifySkips(stats[track], t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var labeled []analysis.DurationStat
	for _, r := range results {
		labeled = append(labeled, r...)
	}
	return labeled, nil
}
