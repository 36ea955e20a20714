package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the shared contract against any backend.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()

	_, err := st.Get(KeyCalibrations)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Put(KeyCalibrations, []byte(`[{"name":"40x","value":2.5}]`)))
	got, err := st.Get(KeyCalibrations)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"40x","value":2.5}]`, string(got))

	require.NoError(t, st.Put(KeyCalibrations, []byte(`[]`)))
	got, err = st.Get(KeyCalibrations)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, st.Put(KeyActiveCalibration, []byte(`"40x"`)))
	require.NoError(t, st.Delete(KeyActiveCalibration))
	_, err = st.Get(KeyActiveCalibration)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, st.Delete("never-stored"))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemory_FailPuts(t *testing.T) {
	m := NewMemory()
	boom := errors.New("disk full")
	m.FailPuts = boom
	assert.ErrorIs(t, m.Put("k", []byte("v")), boom)
	assert.ErrorIs(t, m.Delete("k"), boom)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	f, err := OpenFile(path)
	require.NoError(t, err)
	exerciseStore(t, f)
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")

	f, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Put(KeyActiveCalibration, []byte("100x")))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	got, err := reopened.Get(KeyActiveCalibration)
	require.NoError(t, err)
	assert.Equal(t, "100x", string(got))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(KeyPreferences, []byte(`{"notes":"slide 4"}`)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(KeyPreferences)
	require.NoError(t, err)
	assert.Equal(t, `{"notes":"slide 4"}`, string(got))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{BackendMemory, false},
		{BackendJSON, false},
		{"", false},
		{BackendSQLite, false},
		{"postgres", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			st, err := Open(tt.backend, filepath.Join(dir, tt.backend))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer st.Close()
			require.NoError(t, st.Put("k", []byte("v")))
		})
	}
}
