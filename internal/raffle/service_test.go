package raffle

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/facilisimo/sorteos/internal/config"
	"github.com/facilisimo/sorteos/internal/models"
	"github.com/facilisimo/sorteos/internal/selection"
	"github.com/facilisimo/sorteos/internal/session"
	"github.com/facilisimo/sorteos/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of the storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(key string, data []byte) error {
	args := m.Called(key, data)
	return args.Error(0)
}

func (m *MockStorage) Retrieve(key string) ([]byte, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockStorage) List(prefix string) ([]string, error) {
	args := m.Called(prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// firstStaysShuffler leaves the order untouched so random draws are predictable
type firstStaysShuffler struct{}

func (firstStaysShuffler) Shuffle(n int, swap func(i, j int)) {}

const instagramPaste = `juanperez
2 sem
Quiero ganar! 123 🎉
Responder
maria.lopez
1 d
Participo con 321
Responder
juanperez
1 d
otra vez 999
Responder
`

const facebookPaste = "Ana Gómez\nMe encanta 1 2 3\n2 sem\n\nCarlos Ruiz\n¡Yo quiero! 🎁\n1 d\n"

var fixedNow = time.Date(2026, time.October, 19, 14, 3, 5, 0, time.UTC)

func newTestService(t *testing.T, in session.Input) *Service {
	t.Helper()

	store := storage.NewMemoryStorage()
	cfg := &config.Config{MaxPermutationLength: 8, DefaultMaxWinners: 1}
	service := NewService(cfg, store, selection.NewSelector(selection.WithShuffler(firstStaysShuffler{})))
	service.now = func() time.Time { return fixedNow }

	require.NoError(t, service.State().Start(in))
	_, err := service.Load()
	require.NoError(t, err)
	return service
}

func usernames(comments []models.CommentBlock) []string {
	names := make([]string, 0, len(comments))
	for _, c := range comments {
		names = append(names, c.Username)
	}
	return names
}

func TestService_LoadTagsPlatform(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	comments := service.Comments()
	require.Len(t, comments, 3)
	for _, c := range comments {
		assert.Equal(t, models.PlatformInstagram, c.Platform)
	}

	service = newTestService(t, session.Input{Mode: models.ModeFacebook, Comments: facebookPaste})
	comments = service.Comments()
	require.Len(t, comments, 2)
	assert.Equal(t, models.PlatformFacebook, comments[0].Platform)
}

func TestService_LoadBothMergesInstagramFirst(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeBoth, Instagram: instagramPaste, Facebook: facebookPaste})

	assert.Equal(t,
		[]string{"juanperez", "maria.lopez", "juanperez", "Ana Gómez", "Carlos Ruiz"},
		usernames(service.Comments()))
	assert.Equal(t, models.ModeBoth, service.Filter())
}

func TestService_LoadNames(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeNames, Names: "Ana, Beto\nCarla"})

	comments := service.Comments()
	require.Len(t, comments, 3)
	assert.Equal(t, "Nombre en lista: Beto", comments[1].Comment)
	assert.Equal(t, "19/10/2026", comments[1].Date)
	assert.Empty(t, comments[1].Platform)
}

func TestService_SetFilter(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeBoth, Instagram: instagramPaste, Facebook: facebookPaste})

	service.SetFilter(models.ModeFacebook)
	assert.Equal(t, []string{"Ana Gómez", "Carlos Ruiz"}, usernames(service.Comments()))

	service.SetFilter(models.ModeInstagram)
	assert.Len(t, service.Comments(), 3)

	service.SetFilter(models.ModeNames)
	assert.Equal(t, models.ModeInstagram, service.Filter(), "unknown filters are ignored")

	service.SetFilter(models.ModeBoth)
	assert.Len(t, service.Comments(), 5)
}

func TestService_SetFilterIgnoredOutsideBothMode(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	service.SetFilter(models.ModeFacebook)
	assert.Len(t, service.Comments(), 3)
	assert.Equal(t, models.ModeInstagram, service.Filter())
}

func TestService_CommentsReturnsCopy(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	comments := service.Comments()
	comments[0].Username = "changed"
	assert.Equal(t, "juanperez", service.Comments()[0].Username)
}

func TestService_SearchSavesResult(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeBoth, Instagram: instagramPaste, Facebook: facebookPaste})

	winners, err := service.Search(SearchRequest{Query: "123", Mode: models.SearchNumber, Ordered: false, MaxWinners: 5, Title: "Sorteo de Otoño"})
	require.NoError(t, err)
	assert.Equal(t, []string{"juanperez", "maria.lopez", "Ana Gómez"}, usernames(winners))

	report, err := service.Results()
	require.NoError(t, err)
	assert.Equal(t, "Sorteo de Otoño", report.Title)
	assert.Equal(t, &models.SearchCriterion{Tipo: models.SearchNumber, Valor: "123"}, report.Criterion)
	assert.Equal(t, winners, report.Winners)
	assert.Equal(t, fixedNow, report.GeneratedAt)
}

func TestService_SearchOrderedNumber(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	winners, err := service.Search(SearchRequest{Query: "123", Mode: models.SearchNumber, Ordered: true, MaxWinners: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"juanperez"}, usernames(winners))
}

func TestService_SearchRandomUsesDefaultMaxWinners(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	winners, err := service.Search(SearchRequest{Mode: models.SearchRandom})
	require.NoError(t, err)
	assert.Len(t, winners, 1)

	report, err := service.Results()
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, report.Title)
}

func TestService_SearchInputErrorsLeaveStateAlone(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	_, err := service.Search(SearchRequest{Query: "321", Mode: models.SearchNumber, Ordered: true, MaxWinners: 1, Title: "Primero"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  SearchRequest
		want error
	}{
		{"empty query", SearchRequest{Query: "  ", Mode: models.SearchWord, MaxWinners: 1}, selection.ErrEmptyQuery},
		{"query too long", SearchRequest{Query: "123456789", Mode: models.SearchNumber, MaxWinners: 1}, selection.ErrQueryTooLong},
		{"unknown mode", SearchRequest{Query: "x", Mode: "ruleta", MaxWinners: 1}, selection.ErrUnknownMode},
		{"negative winners", SearchRequest{Query: "x", Mode: models.SearchWord, MaxWinners: -1}, selection.ErrInvalidMaxWinners},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Search(tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsInputError(err))
			assert.False(t, IsNoMatch(err))

			report, err := service.Results()
			require.NoError(t, err)
			assert.Equal(t, "Primero", report.Title)
			assert.Equal(t, []string{"maria.lopez"}, usernames(report.Winners))
		})
	}
}

func TestService_SearchWithoutCommentsIsInputError(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: "Responder\n\n"})

	_, err := service.Search(SearchRequest{Mode: models.SearchRandom, MaxWinners: 1})
	assert.ErrorIs(t, err, ErrNoComments)
	assert.True(t, IsInputError(err))
}

func TestService_SearchNoMatchClearsWinners(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	_, err := service.Search(SearchRequest{Query: "participo", Mode: models.SearchWord, MaxWinners: 1, Title: "Primero"})
	require.NoError(t, err)

	_, err = service.Search(SearchRequest{Query: "nadie", Mode: models.SearchWord, MaxWinners: 1, Title: "Segundo"})
	assert.ErrorIs(t, err, ErrNoMatches)
	assert.True(t, IsNoMatch(err))
	assert.False(t, IsInputError(err))

	_, err = service.Results()
	assert.ErrorIs(t, err, ErrNoWinners)

	title, _, err := service.State().Title()
	require.NoError(t, err)
	assert.Equal(t, "Primero", title, "a search without matches writes nothing but the cleared winners")
}

func TestService_Stats(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	stats, err := service.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Comments: 3, UniqueUsers: 2, Winners: 0, Searched: "-"}, stats)

	_, err = service.Search(SearchRequest{Query: "1", Mode: models.SearchMarker, MaxWinners: 5})
	require.NoError(t, err)

	stats, err = service.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Comments: 3, UniqueUsers: 2, Winners: 2, Searched: "1"}, stats)
}

func TestService_Reset(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})
	_, err := service.Search(SearchRequest{Mode: models.SearchRandom, MaxWinners: 1})
	require.NoError(t, err)

	require.NoError(t, service.Reset())

	assert.Empty(t, service.Comments())
	_, err = service.Results()
	assert.ErrorIs(t, err, ErrNoWinners)
	_, found, err := service.State().GetString(session.KeyComments)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestService_GetMetrics(t *testing.T) {
	service := newTestService(t, session.Input{Mode: models.ModeInstagram, Comments: instagramPaste})

	_, err := service.Search(SearchRequest{Query: "321", Mode: models.SearchNumber, Ordered: true, MaxWinners: 5})
	require.NoError(t, err)
	_, err = service.Search(SearchRequest{Query: "nadie", Mode: models.SearchWord, MaxWinners: 5})
	require.ErrorIs(t, err, ErrNoMatches)

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(service.GetMetrics()), &metrics))
	assert.Equal(t, 3, metrics.Loaded)
	assert.Equal(t, 2, metrics.Searches)
	assert.Equal(t, 1, metrics.Matches)
	assert.Equal(t, 1, metrics.NoMatchCount)
	assert.Equal(t, map[string]int{"numero": 1, "palabra": 1}, metrics.ModeCounts)
	assert.Equal(t, &models.SearchCriterion{Tipo: models.SearchWord, Valor: "nadie"}, metrics.LastCriteria)
}

func TestService_StorageErrorOnSave(t *testing.T) {
	boom := errors.New("disk full")

	mockStorage := &MockStorage{}
	mockStorage.On("Retrieve", session.KeyPlatform).Return([]byte("instagram"), nil)
	mockStorage.On("Retrieve", session.KeyComments).Return([]byte(instagramPaste), nil)
	mockStorage.On("Store", session.KeyWinners, mock.Anything).Return(boom)

	service := NewService(&config.Config{MaxPermutationLength: 8, DefaultMaxWinners: 1}, mockStorage, nil)
	_, err := service.Load()
	require.NoError(t, err)

	_, err = service.Search(SearchRequest{Query: "123", Mode: models.SearchNumber, Ordered: true, MaxWinners: 1})
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsInputError(err))
	mockStorage.AssertExpectations(t)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1234"},
		{12345, "12.345"},
		{1234567, "1.234.567"},
		{-54321, "-54.321"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatNumber(tt.input))
		})
	}
}
