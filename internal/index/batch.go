package index

// DefaultBatchSize is the number of records per upsert call, sized to the
// index API's payload limit.
const DefaultBatchSize = 96

// Batches splits records into consecutive batches of at most size elements.
// Splitting is exhaustive: the concatenation of all batches equals the input
// in order, including a short final batch.
func Batches[T any](records []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}

	var batches [][]T
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}
