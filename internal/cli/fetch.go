package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LongAiden/news-classification/internal/fetch"
)

// fetchParams holds the parameters for the fetch command execution.
type fetchParams struct {
	urlsPath    string
	outputPath  string
	concurrency int
}

// NewFetchCmd creates the "fetch" subcommand that downloads article URLs and
// writes a classification-ready articles file.
func NewFetchCmd() *cobra.Command {
	var params fetchParams

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch article content from a list of URLs",
		Long: `Download each URL, extract the readable article content, convert it to
markdown, and write the result as an articles JSON file suitable for
"newsbatch run". URLs that fail to fetch are logged and skipped.`,
		Example: `  newsbatch fetch --urls urls.txt --output articles.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeFetch(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.urlsPath, "urls", "", "Path to a file with one URL per line")
	cmd.Flags().StringVar(&params.outputPath, "output", "articles.json", "Where to write the articles file")
	cmd.Flags().IntVar(&params.concurrency, "concurrency", 8, "How many URLs to fetch at once")
	_ = cmd.MarkFlagRequired("urls")

	return cmd
}

func executeFetch(cmd *cobra.Command, params fetchParams) error {
	urls, err := readURLs(params.urlsPath)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs in %s", params.urlsPath)
	}

	fetcher := fetch.NewFetcher(logger, fetch.WithConcurrency(params.concurrency))
	articles, err := fetcher.FetchAll(cmd.Context(), urls)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		return fmt.Errorf("none of the %d URLs could be fetched", len(urls))
	}

	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding articles: %w", err)
	}
	if err := os.WriteFile(params.outputPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", params.outputPath, err)
	}

	cmd.Printf("Fetched %d/%d articles into %s\n", len(articles), len(urls), params.outputPath)
	return nil
}

// readURLs loads one URL per line, skipping blanks and # comments.
func readURLs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return urls, nil
}
