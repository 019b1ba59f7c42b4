package mykeywordcache

import (
	"context"
)

// KeywordCache is the fast, best-effort tier of the popularity counters.
// It is never the source of truth: the durable search-term ledger is.
// Callers must tolerate failures of this collaborator.
//
//go:generate mockgen -source=api.go -package mykeywordcache -destination cache_mock.go KeywordCache
type KeywordCache interface {
	RecordSearchedKeyword(c context.Context, keyword string) error
	GetKeywordFrequencies(c context.Context) (map[string]int64, error)
}

var New func(c context.Context) (KeywordCache, func(), error)

func init() {
	// A hosted cache product would register itself here when configured;
	// until then every deployment gets the in-process cache.
	New = NewInMemoryKeywordCache
}
