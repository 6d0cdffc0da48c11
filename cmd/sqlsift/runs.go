package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/sqlsift/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List runs stored in the database",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var rankingCmd = &cobra.Command{
	Use:   "ranking [run-id]",
	Short: "Show the stored call ranking of a run (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRanking,
}

// openStore opens an existing database from the --db flag.
func openStore() (*store.Store, error) {
	if flagDB == "" {
		return nil, errors.New("--db is required")
	}
	if _, err := os.Stat(flagDB); err != nil {
		return nil, fmt.Errorf("database not found: %s", flagDB)
	}
	return store.NewStore(flagDB)
}

func runRuns(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError(cmd, "runs", err)
	}
	defer s.Close()

	runs, err := s.Runs()
	if err != nil {
		return outputError(cmd, "runs", err)
	}
	results := make([]CLIRun, 0, len(runs))
	for _, r := range runs {
		results = append(results, runToCLI(r))
	}
	n := len(results)
	return outputResult(cmd, CLIResult{Command: "runs", Results: results, TotalCount: &n})
}

func runRanking(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError(cmd, "ranking", err)
	}
	defer s.Close()

	var run *store.Run
	if len(args) > 0 {
		run, err = s.RunByID(args[0])
	} else {
		run, err = s.LatestRun()
	}
	if err != nil {
		return outputError(cmd, "ranking", err)
	}
	if run == nil {
		if len(args) > 0 {
			return outputError(cmd, "ranking", fmt.Errorf("run not found: %s", args[0]))
		}
		return outputError(cmd, "ranking", errors.New("no runs in database"))
	}

	rows, err := s.RankingByRun(run.ID)
	if err != nil {
		return outputError(cmd, "ranking", err)
	}
	results := make([]CLIRankedCall, 0, len(rows))
	for _, rc := range rows {
		results = append(results, CLIRankedCall{Rank: rc.Rank, Name: rc.Name, Count: rc.Count})
	}
	n := len(results)
	return outputResult(cmd, CLIResult{Command: "ranking", Results: results, TotalCount: &n})
}
