package embedder

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 32
	DefaultParallelism = 4
)

// EmbedMany embeds texts in fixed-size batches with at most parallelism
// concurrent backend calls. The result slice is aligned with the input:
// result[i] is the vector for texts[i], or nil if the batch containing
// texts[i] failed. A failed batch never aborts the others; the number of
// texts that did not get a vector is returned alongside.
func EmbedMany(ctx context.Context, emb Embedder, texts []string, batchSize, parallelism int) ([][]float32, int) {
	if len(texts) == 0 {
		return nil, 0
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	results := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	failed := make([]int, (len(texts)+batchSize-1)/batchSize)

	for batch := 0; batch*batchSize < len(texts); batch++ {
		start := batch * batchSize
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := batch

		g.Go(func() error {
			vectors, err := emb.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				log.Printf("Embedding batch %d (%d texts) failed: %v", batch, end-start, err)
				failed[batch] = end - start
				return nil // isolate the failure
			}
			copy(results[start:end], vectors)
			return nil
		})
	}

	// Workers never return errors; Wait only fences the goroutines.
	_ = g.Wait()

	totalFailed := 0
	for _, n := range failed {
		totalFailed += n
	}
	return results, totalFailed
}
