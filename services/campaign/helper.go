package campaign

import "incentiva-engine/pkg/db/option"

func withSequenceOrder() option.QueryOption {
	return option.WithSortBy(option.QuerySortBy{
		SortBy:  "sequence",
		OrderBy: "asc",
		Allow:   map[string]bool{"sequence": true},
	})
}

func withTierSequenceOrder() option.QueryOption {
	return option.WithSortBy(option.QuerySortBy{
		SortBy:  "tier_sequence",
		OrderBy: "asc",
		Allow:   map[string]bool{"tier_sequence": true},
	})
}

func withOrderingKeyOrder() option.QueryOption {
	return option.WithSortBy(option.QuerySortBy{
		SortBy:  "ordering_key",
		OrderBy: "asc",
		Allow:   map[string]bool{"ordering_key": true},
	})
}
