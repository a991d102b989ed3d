package scrape

// Split partitions items into ordered chunks of at most size elements each.
// Order is preserved, the final chunk may be shorter, and no item is
// duplicated or dropped. A non-positive size yields a single chunk holding
// every item.
func Split(items []string, size int) [][]string {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]string{items}
	}

	chunks := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
