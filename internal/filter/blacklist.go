// Package filter narrows a pool set by blacklists and by value thresholds.
package filter

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"

	"poolFilter/internal/pool"
)

// Blacklist is a set of disallowed addresses.
type Blacklist = mapset.Set[common.Address]

// NewBlacklist builds a blacklist from addresses.
func NewBlacklist(addresses ...common.Address) Blacklist {
	return mapset.NewThreadUnsafeSet(addresses...)
}

// FilterBlacklistedTokens drops pools holding a blacklisted token.
func FilterBlacklistedTokens(pools []pool.Pool, blacklist Blacklist) []pool.Pool {
	return keep(pools, func(p pool.Pool) bool {
		return !tokenListed(p, blacklist)
	})
}

// FilterBlacklistedPools drops pools whose own address is blacklisted.
func FilterBlacklistedPools(pools []pool.Pool, blacklist Blacklist) []pool.Pool {
	return keep(pools, func(p pool.Pool) bool {
		return !listed(blacklist, p.Address())
	})
}

// FilterBlacklistedAddresses drops pools whose address or either token is blacklisted.
func FilterBlacklistedAddresses(pools []pool.Pool, blacklist Blacklist) []pool.Pool {
	return keep(pools, func(p pool.Pool) bool {
		return !listed(blacklist, p.Address()) && !tokenListed(p, blacklist)
	})
}

func tokenListed(p pool.Pool, blacklist Blacklist) bool {
	a, b := p.Tokens()
	return listed(blacklist, a) || listed(blacklist, b)
}

// listed treats a nil blacklist as empty.
func listed(blacklist Blacklist, address common.Address) bool {
	return blacklist != nil && blacklist.Contains(address)
}

func keep(pools []pool.Pool, pred func(pool.Pool) bool) []pool.Pool {
	out := make([]pool.Pool, 0, len(pools))
	for _, p := range pools {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
