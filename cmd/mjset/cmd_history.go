package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"mjset/internal/report"
	"mjset/internal/store"
)

var historyLimit int

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := cfg.HistoryPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Println("No runs recorded")
		return nil
	}

	s, err := store.NewLocalStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	tbl := report.NewTable("Run history", "id", "time", "seed", "object set", "objects", "tasks", "capped")
	for _, r := range runs {
		seed := strconv.FormatInt(r.Seed, 10)
		if r.FreshSeed {
			seed += "*"
		}
		tbl.AddRow(
			r.ID[:min(8, len(r.ID))],
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			seed,
			r.ObjectSetHash,
			strconv.Itoa(r.Objects),
			strconv.Itoa(r.Batches),
			strconv.Itoa(r.Capped),
		)
	}
	fmt.Print(tbl.View(report.DefaultStyles()))
	return nil
}
