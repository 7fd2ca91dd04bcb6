// Copyright 2026 Lexora Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/lexora-app/lexora"
	"github.com/lexora-app/lexora/backup"
	"github.com/lexora-app/lexora/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "lexora",
		Usage: "Local persistence layer for Lexora learning data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create or upgrade the store schema",
				Action: initCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "schema-version",
						Usage: "Target schema version",
						Value: badger.CurrentSchemaVersion,
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Export a user's data as a JSON backup document",
				Action: exportCommand,
				Flags: []cli.Flag{
					dbFlag(),
					userFlag(),
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Restore a JSON backup document into the store",
				Action: importCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "in",
						Aliases:  []string{"i"},
						Usage:    "Backup document file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print a user's learning statistics",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag(), userFlag()},
			},
			{
				Name:   "clear-user",
				Usage:  "Delete everything stored for a user",
				Action: clearUserCommand,
				Flags:  []cli.Flag{dbFlag(), userFlag()},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to the store directory",
		Required: true,
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User id",
		Required: true,
	}
}

func openStore(c *cli.Context) (*lexora.Store, error) {
	store, err := lexora.Open(c.String("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func initCommand(c *cli.Context) error {
	store, err := lexora.Open(c.String("db"),
		lexora.WithSchemaVersion(c.Int("schema-version")))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	version, err := store.SchemaVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Store ready at schema version %d\n", version)
	return nil
}

func exportCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := store.ExportJSON(context.Background(), c.String("user"))
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if out := c.String("out"); out != "" {
		return os.WriteFile(out, data, 0644)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func importCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("in"))
	if err != nil {
		return fmt.Errorf("failed to read backup document: %w", err)
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	tracker := backup.NewProgressTracker(os.Stderr, c.Int("report-interval"))
	importer := store.NewImporter(backup.WithTracker(tracker))
	if err := importer.Import(context.Background(), data); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := store.ComputeStatistics(context.Background(), c.String("user"))
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	fmt.Printf("Study time:      %d min\n", s.TotalStudyTimeMinutes)
	fmt.Printf("Sessions:        %d\n", s.SessionCount)
	fmt.Printf("Avg accuracy:    %.1f%%\n", s.AverageAccuracy*100)
	fmt.Printf("Vocabulary:      %.1f%%\n", s.VocabularyProgress)
	fmt.Printf("Grammar:         %.1f%%\n", s.GrammarProgress)
	fmt.Printf("Reading:         %.1f%%\n", s.ReadingProgress)
	fmt.Printf("Listening:       %.1f%%\n", s.ListeningProgress)
	fmt.Printf("Current streak:  %d days\n", s.CurrentStreak)
	if s.LastStudyDate != nil {
		fmt.Printf("Last studied:    %s\n", s.LastStudyDate.Format("2006-01-02"))
	} else {
		fmt.Println("Last studied:    never")
	}
	return nil
}

func clearUserCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	userID := c.String("user")
	if err := store.ClearUser(context.Background(), userID); err != nil {
		return fmt.Errorf("failed to clear user data: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Cleared all data for user %s\n", userID)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
