package scheduler

import (
	"errors"
	"fmt"

	"github.com/LongAiden/news-classification/internal/classify"
)

// ErrInvalidBatchSize is returned when the sub-batch size is not positive.
var ErrInvalidBatchSize = errors.New("max batch size must be >= 1")

// Split partitions items into sub-batches of at most maxBatchSize articles,
// preserving input order across and within sub-batches. Only the final
// sub-batch may be smaller than maxBatchSize. The returned slices share
// backing storage with items.
func Split(items []classify.Article, maxBatchSize int) ([][]classify.Article, error) {
	if maxBatchSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, maxBatchSize)
	}

	if len(items) == 0 {
		return nil, nil
	}

	count := (len(items) + maxBatchSize - 1) / maxBatchSize
	batches := make([][]classify.Article, 0, count)
	for start := 0; start < len(items); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches, nil
}
