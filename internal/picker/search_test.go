package picker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/reelpick/internal/catalog"
)

func searchTitles() []catalog.Title {
	return []catalog.Title{
		{ID: 1, Title: "Alien", PosterPath: poster("/a.jpg"), VoteAverage: 8.2, Popularity: 40},
		{ID: 2, Title: "Aliens", PosterPath: nil},
		{ID: 3, Title: "Alien 3", PosterPath: poster("/c.jpg")},
		{ID: 4, Title: "Alien Resurrection", PosterPath: poster("/d.jpg")},
		{ID: 5, Title: "Alien: Covenant", PosterPath: poster("")},
		{ID: 6, Title: "Alien vs Predator", PosterPath: poster("/f.jpg")},
		{ID: 7, Title: "Alien: Romulus", PosterPath: poster("/g.jpg")},
		{ID: 8, Title: "Alien Nation", PosterPath: poster("/h.jpg")},
	}
}

func TestSearchAnnotatesAvailability(t *testing.T) {
	client := &mockCatalog{}
	svc := newTestService(client)

	client.On("Search", mock.Anything, "alien").Return(searchTitles(), nil).Once()
	client.On("FlatrateProviders", mock.Anything, 1).Return([]int{337, 2, 8}, nil)
	client.On("FlatrateProviders", mock.Anything, 3).Return([]int{9}, nil)
	client.On("FlatrateProviders", mock.Anything, 4).Return(nil, errors.New("catalog: upstream returned 500"))
	client.On("FlatrateProviders", mock.Anything, 6).Return([]int{}, nil)
	client.On("FlatrateProviders", mock.Anything, 7).Return(nil, catalog.ErrNotFound)

	results, err := svc.Search(context.Background(), "  alien ", []int{337, 8, 2, 1899})
	require.NoError(t, err)
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "FlatrateProviders", mock.Anything, 8)

	require.Len(t, results, MaxSearchResults)
	ids := []int{results[0].ID, results[1].ID, results[2].ID, results[3].ID, results[4].ID}
	assert.Equal(t, []int{1, 3, 4, 6, 7}, ids, "catalog relevance order, posterless titles dropped")

	assert.Equal(t, []string{"Netflix", "Disney+"}, results[0].AvailableOn, "static table order, unknown ids ignored")
	assert.True(t, results[0].Available)
	assert.Equal(t, 8.2, results[0].VoteAverage)

	assert.Empty(t, results[1].AvailableOn, "Prime Video not requested")
	for _, r := range results[1:] {
		assert.False(t, r.Available)
		assert.NotNil(t, r.AvailableOn)
	}
	for _, r := range results {
		assert.Equal(t, len(r.AvailableOn) > 0, r.Available)
	}
}

func TestSearchWithoutProvidersIsNeverAvailable(t *testing.T) {
	client := &mockCatalog{}
	svc := newTestService(client)
	client.On("Search", mock.Anything, "heat").Return([]catalog.Title{{ID: 949, PosterPath: poster("/h.jpg")}}, nil)
	client.On("FlatrateProviders", mock.Anything, 949).Return([]int{8, 9}, nil)

	results, err := svc.Search(context.Background(), "heat", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Available)
	assert.Empty(t, results[0].AvailableOn)
}

func TestSearchNoMatches(t *testing.T) {
	client := &mockCatalog{}
	svc := newTestService(client)
	client.On("Search", mock.Anything, "zzzz").Return([]catalog.Title{}, nil)

	results, err := svc.Search(context.Background(), "zzzz", []int{8})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchValidation(t *testing.T) {
	client := &mockCatalog{}
	svc := newTestService(client)

	_, err := svc.Search(context.Background(), "   ", []int{8})
	assert.ErrorIs(t, err, ErrInvalidInput)
	client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSearchUpstreamFailure(t *testing.T) {
	client := &mockCatalog{}
	svc := newTestService(client)
	client.On("Search", mock.Anything, "x").Return(nil, errors.New("dial tcp: refused"))

	_, err := svc.Search(context.Background(), "x", []int{8})
	assert.ErrorIs(t, err, ErrUpstream)

	client = &mockCatalog{}
	svc = newTestService(client)
	client.On("Search", mock.Anything, "x").Return(nil, catalog.ErrMissingCredential)
	_, err = svc.Search(context.Background(), "x", []int{8})
	assert.ErrorIs(t, err, catalog.ErrMissingCredential)
}
