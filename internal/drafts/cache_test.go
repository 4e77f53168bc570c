package drafts

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syrilster/leave-lop-console/internal/storage"
)

type failingStore struct {
	storage.BlobStore
}

func (failingStore) Put(string, []byte) error {
	return errors.New("disk full")
}

func TestSetStripsNonDigits(t *testing.T) {
	c := Load(storage.NewMemoryStore())

	got, err := c.Set("E1", "12a3")
	require.NoError(t, err)
	assert.Equal(t, "123", got)
	assert.Equal(t, "123", c.Get("E1"))

	got, err = c.Set("E2", " -4.5x٣")
	require.NoError(t, err)
	assert.Equal(t, "45", got)
}

func TestSetIsVisibleAfterReload(t *testing.T) {
	store := storage.NewMemoryStore()
	c := Load(store)
	_, err := c.Set("E1", "5")
	require.NoError(t, err)

	reloaded := Load(store)
	assert.Equal(t, "5", reloaded.Get("E1"))
}

func TestLoadRecoversFromCorruption(t *testing.T) {
	cases := map[string][]byte{
		"not-json":   []byte("{oops"),
		"wrong-type": []byte(`["E1"]`),
		"empty":      []byte(""),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			require.NoError(t, store.Put(Key, data))

			c := Load(store)
			assert.Empty(t, c.Snapshot())

			_, err := c.Set("E1", "2")
			require.NoError(t, err)
			assert.Equal(t, "2", Load(store).Get("E1"))
		})
	}
}

func TestLoadSanitizesStoredValues(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(Key, []byte(`{"E1":"7 days","E2":""}`)))

	c := Load(store)
	assert.Equal(t, map[string]string{"E1": "7", "E2": ""}, c.Snapshot())
}

func TestMergeSeenNeverOverwrites(t *testing.T) {
	store := storage.NewMemoryStore()
	c := Load(store)
	_, err := c.Set("E1", "4")
	require.NoError(t, err)

	require.NoError(t, c.MergeSeen([]string{"E1", "E2", "E3"}))

	assert.Equal(t, map[string]string{"E1": "4", "E2": "", "E3": ""}, c.Snapshot())
	assert.Equal(t, c.Snapshot(), Load(store).Snapshot())
}

func TestMergeSeenKeepsEntriesFromOtherPages(t *testing.T) {
	c := Load(storage.NewMemoryStore())
	require.NoError(t, c.MergeSeen([]string{"E1"}))
	_, err := c.Set("E1", "3")
	require.NoError(t, err)

	require.NoError(t, c.MergeSeen([]string{"E9"}))

	assert.Equal(t, "3", c.Get("E1"))
	_, ok := c.Snapshot()["E9"]
	assert.True(t, ok)
}

func TestClearKeepsKey(t *testing.T) {
	store := storage.NewMemoryStore()
	c := Load(store)
	_, err := c.Set("E1", "9")
	require.NoError(t, err)

	require.NoError(t, c.Clear("E1"))

	snapshot := Load(store).Snapshot()
	value, ok := snapshot["E1"]
	assert.True(t, ok)
	assert.Equal(t, "", value)
}

func TestClearIf(t *testing.T) {
	store := storage.NewMemoryStore()
	c := Load(store)
	_, err := c.Set("E1", "7")
	require.NoError(t, err)

	cleared, err := c.ClearIf("E1", "5")
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Equal(t, "7", Load(store).Get("E1"))

	cleared, err = c.ClearIf("E1", "7")
	require.NoError(t, err)
	assert.True(t, cleared)
	value, ok := Load(store).Snapshot()["E1"]
	assert.True(t, ok)
	assert.Equal(t, "", value)
}

func TestPending(t *testing.T) {
	c := Load(storage.NewMemoryStore())
	for id, raw := range map[string]string{"zero": "0", "zeros": "000", "positive": "05", "huge": "99999999999999999999999"} {
		_, err := c.Set(id, raw)
		require.NoError(t, err)
	}

	cases := []struct {
		id   string
		want int
		ok   bool
	}{
		{id: "absent"},
		{id: "zero"},
		{id: "zeros"},
		{id: "huge"},
		{id: "positive", want: 5, ok: true},
	}
	for _, tc := range cases {
		got, ok := c.Pending(tc.id)
		assert.Equal(t, tc.ok, ok, tc.id)
		assert.Equal(t, tc.want, got, tc.id)
	}
}

func TestSetReturnsPersistError(t *testing.T) {
	c := Load(failingStore{storage.NewMemoryStore()})

	got, err := c.Set("E1", "3")
	assert.Error(t, err)
	assert.Equal(t, "3", got)
	assert.Equal(t, "3", c.Get("E1"))
}
