package batch

import "fmt"

// DefaultBatchSize is the largest group the deploy-style batch program accepts
// before its init code plus arguments exceed the node's call limits.
const DefaultBatchSize = 300

// Group is the half-open index range [From, To) of the items sent in one round trip.
type Group struct {
	From int
	To   int
}

func (g Group) Len() int { return g.To - g.From }

// SplitGroups splits n items into consecutive groups of at most size items.
// The last group ends at n.
func SplitGroups(n, size int) ([]Group, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if n < 0 {
		return nil, fmt.Errorf("item count must be >= 0")
	}

	groups := make([]Group, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		groups = append(groups, Group{From: start, To: end})
	}
	return groups, nil
}
