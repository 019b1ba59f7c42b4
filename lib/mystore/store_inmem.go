package mystore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// storesMutex is shared by every in-memory store: a transaction that
// touches multiple stores (order plus product) must exclude transactions
// on each of them, the way datastore transactions conflict across kinds.
var storesMutex sync.Mutex

type InMemoryStore[T any] struct {
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	// Start transaction: the shared mutex is held for the duration of f,
	// so concurrent transactions serialize, also across stores
	storesMutex.Lock()

	ctx := context.WithValue(c, ctxTransactionKey{}, true)

	err := f(ctx)
	if err != nil {
		// Rollback
		storesMutex.Unlock()

		return err
	}

	// Commit
	storesMutex.Unlock()

	return nil
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	nonTransactional := c.Value(ctxTransactionKey{}) == nil

	if nonTransactional {
		storesMutex.Lock()
	}

	s.Items[uid] = value

	if nonTransactional {
		storesMutex.Unlock()
	}

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	nonTransactional := c.Value(ctxTransactionKey{}) == nil

	if nonTransactional {
		storesMutex.Lock()
	}

	result, exists := s.Items[uid]

	if nonTransactional {
		storesMutex.Unlock()
	}

	return result, exists, nil
}

func (s *InMemoryStore[T]) Delete(c context.Context, uid string) error {
	nonTransactional := c.Value(ctxTransactionKey{}) == nil

	if nonTransactional {
		storesMutex.Lock()
	}

	delete(s.Items, uid)

	if nonTransactional {
		storesMutex.Unlock()
	}

	return nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	nonTransactional := c.Value(ctxTransactionKey{}) == nil

	if nonTransactional {
		storesMutex.Lock()
	}

	result := make([]T, 0, len(s.Items))
	for _, v := range s.Items {
		result = append(result, v)
	}

	if nonTransactional {
		storesMutex.Unlock()
	}

	return result, nil
}

func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	items, err := s.List(c)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(items))
	for _, item := range items {
		matches, err := matchesFilters(item, filters)
		if err != nil {
			return nil, err
		}
		if matches {
			result = append(result, item)
		}
	}

	if orderByField != "" {
		err = orderByFieldName(result, orderByField)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func matchesFilters[T any](item T, filters []Filter) (bool, error) {
	for _, f := range filters {
		fieldValue, err := fieldByName(item, f.Field)
		if err != nil {
			return false, err
		}

		cmp, err := compareValues(fieldValue, f.Value)
		if err != nil {
			return false, err
		}

		switch f.Compare {
		case "=":
			if cmp != 0 {
				return false, nil
			}
		case ">=":
			if cmp < 0 {
				return false, nil
			}
		case "<=":
			if cmp > 0 {
				return false, nil
			}
		case ">":
			if cmp <= 0 {
				return false, nil
			}
		case "<":
			if cmp >= 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported compare operator %q", f.Compare)
		}
	}

	return true, nil
}

// orderByFieldName sorts on one or more comma-separated fields, each
// optionally prefixed with '-' for descending, like datastore's Order.
func orderByFieldName[T any](items []T, orderByField string) error {
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		for _, field := range strings.Split(orderByField, ",") {
			descending := false
			fieldName := field
			if fieldName[0] == '-' {
				descending = true
				fieldName = fieldName[1:]
			}

			left, err := fieldByName(items[i], fieldName)
			if err != nil {
				sortErr = err
				return false
			}
			right, err := fieldByName(items[j], fieldName)
			if err != nil {
				sortErr = err
				return false
			}
			cmp, err := compareValues(left, right)
			if err != nil {
				sortErr = err
				return false
			}
			if cmp == 0 {
				continue
			}
			if descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	return sortErr
}

func fieldByName[T any](item T, fieldName string) (any, error) {
	value := reflect.ValueOf(item)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	field := value.FieldByName(fieldName)
	if !field.IsValid() {
		return nil, fmt.Errorf("unknown field %q on %T", fieldName, item)
	}
	return field.Interface(), nil
}

func compareValues(left any, right any) (int, error) {
	if leftTime, ok := left.(time.Time); ok {
		rightTime, ok := right.(time.Time)
		if !ok {
			return 0, fmt.Errorf("cannot compare time.Time with %T", right)
		}
		return leftTime.Compare(rightTime), nil
	}

	leftValue := reflect.ValueOf(left)
	rightValue := reflect.ValueOf(right)

	switch leftValue.Kind() {
	case reflect.String:
		if rightValue.Kind() != reflect.String {
			return 0, fmt.Errorf("cannot compare string with %T", right)
		}
		leftString, rightString := leftValue.String(), rightValue.String()
		switch {
		case leftString < rightString:
			return -1, nil
		case leftString > rightString:
			return 1, nil
		}
		return 0, nil
	case reflect.Bool:
		if rightValue.Kind() != reflect.Bool {
			return 0, fmt.Errorf("cannot compare bool with %T", right)
		}
		leftBool, rightBool := leftValue.Bool(), rightValue.Bool()
		switch {
		case leftBool == rightBool:
			return 0, nil
		case rightBool:
			return -1, nil
		}
		return 1, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rightInt, err := asInt64(rightValue)
		if err != nil {
			return 0, err
		}
		leftInt := leftValue.Int()
		switch {
		case leftInt < rightInt:
			return -1, nil
		case leftInt > rightInt:
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("unsupported field type %T", left)
}

func asInt64(value reflect.Value) (int64, error) {
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(value.Uint()), nil
	}
	return 0, fmt.Errorf("cannot compare integer with %s", value.Kind())
}
