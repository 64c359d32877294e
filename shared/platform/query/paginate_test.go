package query

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/vskolike/groupdir/shared/domain"
)

// sliceSource pagina una lista de strings; el criterio se ignora.
type sliceSource struct {
	items    []string
	listErr  error
	countErr error
	calls    int
	lastSort Sort
}

func (s *sliceSource) ListByCriteria(ctx context.Context, c sharedDomain.Criteria, p OffsetPagination, srt Sort) ([]string, error) {
	s.calls++
	s.lastSort = srt
	if s.listErr != nil {
		return nil, s.listErr
	}
	sorted := append([]string(nil), s.items...)
	sort.Strings(sorted)
	if srt.Desc {
		sort.Sort(sort.Reverse(sort.StringSlice(sorted)))
	}
	if p.Offset >= len(sorted) {
		return nil, nil
	}
	end := p.Offset + p.Limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[p.Offset:end], nil
}

func (s *sliceSource) CountByCriteria(ctx context.Context, c sharedDomain.Criteria) (int64, error) {
	s.calls++
	if s.countErr != nil {
		return 0, s.countErr
	}
	return int64(len(s.items)), nil
}

var testRegistry = MustSortRegistry("id", map[string]string{"id": "id", "name": "name"})

func TestPaginate_DefaultSortAndWindow(t *testing.T) {
	src := &sliceSource{items: []string{"c", "a", "e", "b", "d"}}

	page, err := Paginate[string](context.Background(), src, nil, PageRequest{Start: 1, Size: 2}, SortSpec{}, testRegistry)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c"}, page.Data)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 1, page.Start)
	assert.Equal(t, 2, page.Size)
	assert.Equal(t, "id", page.Sort)
	assert.Equal(t, "asc", page.Order)
	assert.Equal(t, Sort{Field: "id", Desc: false}, src.lastSort)
}

func TestPaginate_SizeIsMinOfRemaining(t *testing.T) {
	src := &sliceSource{items: []string{"a", "b", "c", "d", "e"}}

	for start := 0; start < 5; start++ {
		page, err := Paginate[string](context.Background(), src, nil, PageRequest{Start: start, Size: 3}, SortSpec{}, testRegistry)
		require.NoError(t, err)
		want := 3
		if 5-start < want {
			want = 5 - start
		}
		assert.Equal(t, want, page.Size, "start=%d", start)
		assert.Len(t, page.Data, want)
	}
}

func TestPaginate_OffsetBeyondTotal(t *testing.T) {
	src := &sliceSource{items: []string{"a", "b"}}

	page, err := Paginate[string](context.Background(), src, nil, PageRequest{Start: 10, Size: 5}, SortSpec{Key: "name", Order: Desc}, testRegistry)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 0, page.Size)
	assert.Equal(t, "desc", page.Order)
}

func TestPaginate_InvalidInputNeverReachesStore(t *testing.T) {
	cases := map[string]struct {
		req      PageRequest
		sortSpec SortSpec
		want     error
	}{
		"zero size":      {PageRequest{Start: 0, Size: 0}, SortSpec{}, ErrInvalidPage},
		"negative start": {PageRequest{Start: -1, Size: 10}, SortSpec{}, ErrInvalidPage},
		"unknown sort":   {PageRequest{Start: 0, Size: 10}, SortSpec{Key: "password"}, ErrUnknownSortField},
		"bad order":      {PageRequest{Start: 0, Size: 10}, SortSpec{Order: "up"}, ErrInvalidOrder},
		"empty sort set": {PageRequest{Start: 0, Size: 10}, SortSpec{Key: "", Set: true}, ErrUnknownSortField},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			src := &sliceSource{items: []string{"a"}}
			page, err := Paginate[string](context.Background(), src, nil, tc.req, tc.sortSpec, testRegistry)
			assert.Nil(t, page)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, sharedDomain.ErrInvalidInput)
			assert.Zero(t, src.calls)
		})
	}
}

func TestPaginate_StoreFailures(t *testing.T) {
	cause := errors.New("timeout")

	_, err := Paginate[string](context.Background(), &sliceSource{listErr: cause}, nil, PageRequest{Size: 10}, SortSpec{}, testRegistry)
	assert.ErrorIs(t, err, sharedDomain.ErrStoreFailure)
	assert.ErrorIs(t, err, cause)

	_, err = Paginate[string](context.Background(), &sliceSource{countErr: cause}, nil, PageRequest{Size: 10}, SortSpec{}, testRegistry)
	assert.ErrorIs(t, err, sharedDomain.ErrStoreFailure)
	assert.NotErrorIs(t, err, sharedDomain.ErrInvalidInput)
}
