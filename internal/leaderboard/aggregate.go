package leaderboard

// Aggregator folds activity records into one leader per category.
// It keeps no state between calls and is safe for concurrent use.
type Aggregator struct {
	classifier *Classifier
	normalizer Normalizer
}

// NewAggregator builds an Aggregator. A nil classifier uses DefaultClassifier.
func NewAggregator(classifier *Classifier, normalizer Normalizer) *Aggregator {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Aggregator{classifier: classifier, normalizer: normalizer}
}

// categoryTotals accumulates per-member sums for one category and remembers
// the order in which members were first seen.
type categoryTotals struct {
	byMember map[string]*CategoryLeader
	order    []string
}

// Aggregate sums distance (km) and duration per (category, member), skipping
// members listed in excluded, and returns the member with the greatest
// distance for every category that has at least one record. On equal
// distance the member seen first wins.
func (a *Aggregator) Aggregate(activities []Activity, excluded map[string]struct{}) map[Category]CategoryLeader {
	totals := make(map[Category]*categoryTotals)

	for _, act := range activities {
		if _, skip := excluded[act.MemberID]; skip {
			continue
		}

		category := a.classifier.Classify(act.Type)
		bucket, ok := totals[category]
		if !ok {
			bucket = &categoryTotals{byMember: make(map[string]*CategoryLeader)}
			totals[category] = bucket
		}

		total, ok := bucket.byMember[act.MemberID]
		if !ok {
			total = &CategoryLeader{
				Category:  category,
				MemberID:  act.MemberID,
				FirstName: act.FirstName,
				LastName:  act.LastName,
				Icon:      act.Icon,
			}
			bucket.byMember[act.MemberID] = total
			bucket.order = append(bucket.order, act.MemberID)
		}

		total.DistanceKm += a.normalizer.Normalize(act.Distance, act.Unit)
		total.Duration += act.Duration
	}

	leaders := make(map[Category]CategoryLeader, len(totals))
	for category, bucket := range totals {
		best := bucket.byMember[bucket.order[0]]
		for _, memberID := range bucket.order[1:] {
			if candidate := bucket.byMember[memberID]; candidate.DistanceKm > best.DistanceKm {
				best = candidate
			}
		}
		leaders[category] = *best
	}
	return leaders
}
