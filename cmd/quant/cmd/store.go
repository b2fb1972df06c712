package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/artifact"
)

var (
	storePath   string
	searchType  string
	searchGoal  string
	searchTags  []string
	searchLimit int
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the artifact repository",
}

var storeLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the commit log",
	RunE:  runStoreLog,
}

var storeSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search indexed artifacts",
	RunE:  runStoreSearch,
}

var storeShowCmd = &cobra.Command{
	Use:   "show <hash>",
	Short: "Print an artifact as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreShow,
}

func init() {
	storeCmd.PersistentFlags().StringVar(&storePath, "store", "./quantstore", "path to artifact repository")

	storeSearchCmd.Flags().StringVar(&searchType, "type", "", "artifact type (dataset, strategy_spec, ...)")
	storeSearchCmd.Flags().StringVar(&searchGoal, "goal", "", "strategy goal")
	storeSearchCmd.Flags().StringSliceVar(&searchTags, "tag", nil, "regime tag (repeatable, any-of)")
	storeSearchCmd.Flags().IntVar(&searchLimit, "limit", 20, "max results")

	storeCmd.AddCommand(storeLogCmd, storeSearchCmd, storeShowCmd)
}

func runStoreLog(cmd *cobra.Command, args []string) error {
	repo, err := artifact.Open(storePath, nil)
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.Commits()
	if err != nil {
		return err
	}
	for _, e := range entries {
		ts := time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
		fmt.Printf("%s  %s  %-16s %s\n", ts, short(e.ArtifactHash), e.ArtifactType, e.Message)
		if len(e.Parents) > 0 {
			shorts := make([]string, len(e.Parents))
			for i, p := range e.Parents {
				shorts[i] = short(p)
			}
			fmt.Printf("%42s parents: %s\n", "", strings.Join(shorts, ", "))
		}
	}
	return nil
}

func runStoreSearch(cmd *cobra.Command, args []string) error {
	repo, err := artifact.Open(storePath, nil)
	if err != nil {
		return err
	}
	defer repo.Close()

	results, err := repo.Search(artifact.Query{
		Type:  artifact.Kind(searchType),
		Goal:  searchGoal,
		Tags:  searchTags,
		Limit: searchLimit,
	})
	if err != nil {
		return err
	}

	for _, m := range results {
		fmt.Printf("%s  %-16s %s\n", short(m.Hash), m.Type, m.Description)
	}
	fmt.Printf("%d artifacts\n", len(results))
	return nil
}

func runStoreShow(cmd *cobra.Command, args []string) error {
	repo, err := artifact.Open(storePath, nil)
	if err != nil {
		return err
	}
	defer repo.Close()

	a, err := repo.Get(artifact.Hash(args[0]))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
