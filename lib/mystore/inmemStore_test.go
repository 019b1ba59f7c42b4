package mystore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type Person struct {
	UID      string
	Name     string
	Age      int
	JoinedAt time.Time
}

type Account struct {
	UID     string
	Balance int
}

var (
	marc = Person{UID: "123", Name: "Marc", Age: 42, JoinedAt: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)}
	eva  = Person{UID: "456", Name: "Eva", Age: 35, JoinedAt: time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)}
	pien = Person{UID: "789", Name: "Pien", Age: 8, JoinedAt: time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC)}
)

func TestStore(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := ps.Get(c, marc.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Get put", func(t *testing.T) {
		err = ps.Put(c, marc.UID, marc)
		assert.NoError(t, err)
	})

	t.Run("Get found", func(t *testing.T) {
		p, found, err := ps.Get(c, marc.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, marc, p)
	})

	t.Run("List", func(t *testing.T) {
		all, err := ps.List(c)
		assert.NoError(t, err)
		assert.Equal(t, all, []Person{marc})
	})

	t.Run("Delete", func(t *testing.T) {
		err := ps.Delete(c, marc.UID)
		assert.NoError(t, err)

		_, found, err := ps.Get(c, marc.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})
}

func TestQuery(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer cleanup()

	ps.Put(c, marc.UID, marc)
	ps.Put(c, eva.UID, eva)
	ps.Put(c, pien.UID, pien)

	t.Run("Filter on string equality", func(t *testing.T) {
		got, err := ps.Query(c, []Filter{{Field: "Name", Compare: "=", Value: "Eva"}}, "")
		assert.NoError(t, err)
		assert.Equal(t, []Person{eva}, got)
	})

	t.Run("Filter on integer range", func(t *testing.T) {
		got, err := ps.Query(c, []Filter{
			{Field: "Age", Compare: ">=", Value: 10},
			{Field: "Age", Compare: "<=", Value: 40},
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, []Person{eva}, got)
	})

	t.Run("Order ascending", func(t *testing.T) {
		got, err := ps.Query(c, nil, "Age")
		assert.NoError(t, err)
		assert.Equal(t, []Person{pien, eva, marc}, got)
	})

	t.Run("Order descending on timestamp", func(t *testing.T) {
		got, err := ps.Query(c, nil, "-JoinedAt")
		assert.NoError(t, err)
		assert.Equal(t, []Person{pien, eva, marc}, got)
	})

	t.Run("Unknown field", func(t *testing.T) {
		_, err := ps.Query(c, []Filter{{Field: "Nonexistent", Compare: "=", Value: "x"}}, "")
		assert.Error(t, err)
	})
}

func TestQueryOrderTieBreak(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer cleanup()

	// Noa joined at the same moment as Eva
	noa := Person{UID: "345", Name: "Noa", Age: 70, JoinedAt: eva.JoinedAt}
	ps.Put(c, marc.UID, marc)
	ps.Put(c, eva.UID, eva)
	ps.Put(c, noa.UID, noa)

	got, err := ps.Query(c, nil, "-JoinedAt,UID")
	assert.NoError(t, err)
	assert.Equal(t, []Person{noa, eva, marc}, got)
}

func TestTransactionsSerializeAcrossStores(t *testing.T) {
	c := context.TODO()
	personStore, personCleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer personCleanup()

	accountStore, accountCleanup, err := NewInMemoryStore[Account](c)
	assert.NoError(t, err)
	defer accountCleanup()

	personStore.Put(c, marc.UID, marc)

	// A transaction on one store must exclude transactions on every other
	// store: a second transaction must not slip into the window between
	// this read and the write below and get overwritten
	firstHasRead := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan struct{})
	secondDone := make(chan struct{})
	var secondRan atomic.Bool

	go func() {
		defer close(firstDone)
		personStore.RunInTransaction(c, func(c context.Context) error {
			p, _, err := personStore.Get(c, marc.UID)
			if err != nil {
				return err
			}
			close(firstHasRead)
			<-release
			p.Age++
			return personStore.Put(c, marc.UID, p)
		})
	}()

	<-firstHasRead
	go func() {
		defer close(secondDone)
		accountStore.RunInTransaction(c, func(c context.Context) error {
			secondRan.Store(true)
			p, _, err := personStore.Get(c, marc.UID)
			if err != nil {
				return err
			}
			p.Age += 10
			err = personStore.Put(c, marc.UID, p)
			if err != nil {
				return err
			}
			return accountStore.Put(c, "a1", Account{UID: "a1", Balance: p.Age})
		})
	}()

	// the account transaction must be blocked while the person transaction
	// is still open
	time.Sleep(50 * time.Millisecond)
	assert.False(t, secondRan.Load())

	close(release)
	<-firstDone
	<-secondDone

	p, found, err := personStore.Get(c, marc.UID)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, marc.Age+11, p.Age)
}

func TestTransactionSerializes(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer cleanup()

	ps.Put(c, marc.UID, marc)

	// Concurrent read-modify-write transactions must not lose updates
	const numRoutines = 20
	wg := sync.WaitGroup{}
	wg.Add(numRoutines)
	for i := 0; i < numRoutines; i++ {
		go func() {
			defer wg.Done()
			ps.RunInTransaction(c, func(c context.Context) error {
				p, _, err := ps.Get(c, marc.UID)
				if err != nil {
					return err
				}
				p.Age++
				return ps.Put(c, marc.UID, p)
			})
		}()
	}
	wg.Wait()

	p, found, err := ps.Get(c, marc.UID)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, marc.Age+numRoutines, p.Age)
}
