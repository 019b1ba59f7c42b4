package mykeywordcache

import (
	"context"
	"sync"
)

type inMemoryKeywordCache struct {
	mutex       sync.Mutex
	frequencies map[string]int64
}

func NewInMemoryKeywordCache(c context.Context) (KeywordCache, func(), error) {
	return &inMemoryKeywordCache{
		frequencies: make(map[string]int64),
	}, func() {}, nil
}

func (kc *inMemoryKeywordCache) RecordSearchedKeyword(c context.Context, keyword string) error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	kc.frequencies[keyword]++

	return nil
}

func (kc *inMemoryKeywordCache) GetKeywordFrequencies(c context.Context) (map[string]int64, error) {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	frequencies := make(map[string]int64, len(kc.frequencies))
	for keyword, count := range kc.frequencies {
		frequencies[keyword] = count
	}

	return frequencies, nil
}
