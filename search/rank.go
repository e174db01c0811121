package search

import "sort"

// Rank orders the merged place list for the active filter. All sorts are
// stable so ties keep the order the merge produced.
func Rank(list []*AnnotatedPlace, req Request) []*AnnotatedPlace {
	switch {
	case req.Filter == FilterReviewed:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Score() > list[j].Score()
		})
	case req.Filter == FilterAll && req.Keyword != "":
		// Keyword matches first, then anything with rating events.
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].KeywordMatched != list[j].KeywordMatched {
				return list[i].KeywordMatched
			}
			if list[i].HasRatings() != list[j].HasRatings() {
				return list[i].HasRatings()
			}
			return false
		})
	}
	// Bookmarked-only and plain browsing keep insertion order.
	return list
}
