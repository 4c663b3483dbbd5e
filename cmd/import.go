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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-export-tools/internal/ingest"
	"github.com/ademuri/spotify-export-tools/internal/store"
)

var importName string
var importDate string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Imports a Spotify export download into a project",
	Long: `Indexes a download directory, parses its StreamingHistory files, and
stores the raw listening records. Run process afterwards to rebuild the
project's cleaned tables.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runImport(viper.GetString("database"), viper.GetString("project"),
			args[0], importName, importDate)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importName, "name", "",
		"Name for the download (defaults to the directory name)")
	importCmd.Flags().StringVar(&importDate, "date", "",
		"Date the download was requested from Spotify, in yyyy-mm-dd format")
}

func runImport(dbPath, project, path, name, dateString string) error {
	if project == "" {
		return fmt.Errorf("no project specified - use --project")
	}

	var declared time.Time
	var err error
	if dateString != "" {
		declared, err = time.ParseInLocation("2006-01-02", dateString, time.UTC)
		if err != nil {
			return fmt.Errorf("--date: %w", err)
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

	fmt.Printf("Indexing download at %q\n", path)
	download, err := ingest.ScanDownload(path)
	if err != nil {
		return err
	}
	if name != "" {
		download.Name = name
	}

	// The declared request date is never trusted outright: listening
	// evidence past it moves it forward.
	requestDate := ""
	latest := download.LatestListen()
	if !latest.IsZero() || !declared.IsZero() {
		corrected := ingest.CorrectRequestDate(declared, latest)
		requestDate = corrected.Format("2006-01-02")
		if !declared.IsZero() && corrected.After(declared) {
			fmt.Printf("Declared date %s predates listens; corrected to %s\n",
				declared.Format("2006-01-02"), requestDate)
		}
	}

	listens := make([]store.RawListenImport, len(download.Records))
	for i, r := range download.Records {
		listens[i] = store.RawListenImport{
			Position:   r.Position,
			EndTime:    r.EndTime,
			ArtistName: r.ArtistName,
			TrackName:  r.TrackName,
			MsPlayed:   r.MsPlayed,
		}
	}

	id, err := db.AddDownload(projectID, store.Download{
		Path:        download.Path,
		Name:        download.Name,
		RequestDate: requestDate,
		StartTime:   download.StartTime(),
	}, listens)
	if err != nil {
		return err
	}

	fmt.Printf("Imported download %q (id %d): %d streaming files, %d records\n",
		download.Name, id, len(download.StreamingFiles), len(download.Records))
	return nil
}
