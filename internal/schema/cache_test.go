package schema

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	typeCalls  atomic.Int32
	fieldCalls atomic.Int32
	release    chan struct{}
	err        error
}

func (f *fakeLoader) ClientType(ctx context.Context, id int64) (*domain.EntityType, error) {
	f.typeCalls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.EntityType{ID: id, Name: "Wholesale", NameFieldLabel: "Company"}, nil
}

func (f *fakeLoader) Fields(ctx context.Context, typeID int64, set apiclient.FieldSet) ([]domain.FieldDefinition, error) {
	f.fieldCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields := []domain.FieldDefinition{
		{ID: 1, Name: "phone", Type: domain.FieldTypePhone, DisplayOrder: 3},
		{ID: 2, Name: "segment", Type: domain.FieldTypeList, DisplayOrder: 1},
		{ID: 3, Name: "weight", Type: domain.FieldTypeNumber, DisplayOrder: 1},
	}
	if set == apiclient.FilterableFields {
		return fields[1:], nil
	}
	return fields, nil
}

func TestCache_LoadOncePerSession(t *testing.T) {
	loader := &fakeLoader{}
	c := NewCache(loader)
	ctx := context.Background()

	s, err := c.Load(ctx, "ns", 5)
	require.NoError(t, err)
	assert.Equal(t, "Company", s.Type.NameFieldLabel)

	var order []string
	for _, f := range s.Fields {
		order = append(order, f.Name)
	}
	assert.Equal(t, []string{"segment", "weight", "phone"}, order)
	assert.Equal(t, []string{"segment", "weightFrom", "weightTo"}, s.FilterKeys())

	again, err := c.Load(ctx, "ns", 5)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, int32(1), loader.typeCalls.Load())
	assert.Equal(t, int32(4), loader.fieldCalls.Load())

	_, err = c.Load(ctx, "other", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.typeCalls.Load())

	c.Forget("ns")
	_, err = c.Load(ctx, "ns", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(3), loader.typeCalls.Load())
}

func TestCache_ConcurrentLoadsShareFetch(t *testing.T) {
	loader := &fakeLoader{release: make(chan struct{})}
	c := NewCache(loader)

	var wg sync.WaitGroup
	results := make([]*Schema, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.Load(context.Background(), "ns", 9)
			assert.NoError(t, err)
			results[i] = s
		}()
	}

	require.Eventually(t, func() bool { return loader.typeCalls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(loader.release)
	wg.Wait()

	assert.Equal(t, int32(1), loader.typeCalls.Load())
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

func TestCache_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	loader := &fakeLoader{release: make(chan struct{})}
	c := NewCache(loader)

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.Load(first, "ns", 9)
		firstDone <- err
	}()
	require.Eventually(t, func() bool { return loader.typeCalls.Load() >= 1 }, time.Second, time.Millisecond)

	secondDone := make(chan *Schema, 1)
	go func() {
		s, err := c.Load(context.Background(), "ns", 9)
		assert.NoError(t, err)
		secondDone <- s
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	close(loader.release)

	s := <-secondDone
	require.NotNil(t, s)
	assert.Equal(t, "Wholesale", s.Type.Name)
	assert.NoError(t, <-firstDone)
	assert.Equal(t, int32(1), loader.typeCalls.Load())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	loader := &fakeLoader{err: errors.New("backend down")}
	c := NewCache(loader)

	_, err := c.Load(context.Background(), "ns", 1)
	require.Error(t, err)

	loader.err = nil
	_, err = c.Load(context.Background(), "ns", 1)
	require.NoError(t, err)
}

func TestCache_RequiresType(t *testing.T) {
	_, err := NewCache(&fakeLoader{}).Load(context.Background(), "ns", 0)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestCache_Prune(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := NewCache(&fakeLoader{})
	c.now = func() time.Time { return now }

	_, err := c.Load(context.Background(), "a", 1)
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	_, err = c.Load(context.Background(), "b", 1)
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, c.Prune(30*time.Minute))
	assert.NotContains(t, c.entries, "a")
	assert.Contains(t, c.entries, "b")
}
