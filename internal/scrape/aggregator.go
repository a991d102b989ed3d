package scrape

import "github.com/ternarybob/colligo/internal/models"

// Aggregate folds terminal batch outcomes into one flat result list in
// batch-index order. The second return value counts batches that yielded at
// least one result. Outcomes are read, never mutated.
func Aggregate(outcomes []models.BatchOutcome) ([]models.ResultRecord, int) {
	var results []models.ResultRecord
	successful := 0

	for i := range outcomes {
		if len(outcomes[i].Results) == 0 {
			continue
		}
		results = append(results, outcomes[i].Results...)
		successful++
	}

	return results, successful
}
