package core

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/tidycsv/internal/storage"
	"github.com/JonMunkholm/tidycsv/internal/table"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu        sync.Mutex
	completed []string
	failed    []string
	rows      int
}

func (f *fakeRecorder) RunCompleted(format string, rows, _, _ int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, format)
	f.rows += rows
}

func (f *fakeRecorder) RunFailed(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, code)
}

func newTestService(t *testing.T, opts ...Option) (*Service, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := storage.NewWithFs(fs, "uploads", "cleaned")
	require.NoError(t, err)
	svc := NewService(store, opts...)
	t.Cleanup(svc.Close)
	return svc, fs
}

const sampleCSV = "name,qty,tag\nA,1,X\nA,1,X\nB,,y \n"

func TestService_Clean(t *testing.T) {
	rec := &fakeRecorder{}
	svc, fs := newTestService(t, WithRecorder(rec))

	res, err := svc.Clean(context.Background(), CleanRequest{
		FileName:            "data.csv",
		Body:                strings.NewReader(sampleCSV),
		NumericStrategy:     "mean",
		CategoricalStrategy: "mode",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "data.csv", res.FileName)
	assert.Equal(t, "cleaned_data.csv", res.CleanedFileName)
	assert.Equal(t, "csv", res.Format)
	assert.Equal(t, 1, res.Summary.DuplicatesRemoved)

	raw, err := afero.ReadFile(fs, "uploads/data.csv")
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(raw))

	cleaned, err := afero.ReadFile(fs, "cleaned/cleaned_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "name,qty,tag\na,1,x\nb,1,y\n", string(cleaned))

	assert.Equal(t, []string{"csv"}, rec.completed)
	assert.Equal(t, 3, rec.rows)
}

func TestService_CleanTSV(t *testing.T) {
	svc, fs := newTestService(t)

	res, err := svc.Clean(context.Background(), CleanRequest{
		FileName: "dir/data.tsv",
		Body:     strings.NewReader("a\tb\n Hi \t2\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cleaned_data.tsv", res.CleanedFileName)

	cleaned, err := afero.ReadFile(fs, "cleaned/cleaned_data.tsv")
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nhi\t2\n", string(cleaned))
}

func TestService_CleanErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      CleanRequest
		wantCode string
	}{
		{
			name:     "unsupported extension",
			req:      CleanRequest{FileName: "notes.pdf", Body: strings.NewReader("x")},
			wantCode: "FILE006",
		},
		{
			name:     "malformed csv",
			req:      CleanRequest{FileName: "bad.csv", Body: strings.NewReader("a,b\n\"x,1\n")},
			wantCode: "FILE002",
		},
		{
			name:     "empty file",
			req:      CleanRequest{FileName: "empty.csv", Body: strings.NewReader("")},
			wantCode: "FILE005",
		},
		{
			name:     "no body",
			req:      CleanRequest{FileName: "x.csv"},
			wantCode: "FILE004",
		},
		{
			name:     "invalid name",
			req:      CleanRequest{FileName: "../", Body: strings.NewReader("a\n1\n")},
			wantCode: "FILE008",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			svc, fs := newTestService(t, WithRecorder(rec))

			_, err := svc.Clean(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, MapError(err).Code)
			assert.Equal(t, []string{tt.wantCode}, rec.failed)

			entries, err := afero.ReadDir(fs, "cleaned")
			require.NoError(t, err)
			assert.Empty(t, entries, "no cleaned output for a failed run")

			uploads, err := afero.ReadDir(fs, "uploads")
			require.NoError(t, err)
			assert.Empty(t, uploads, "no stored upload for a failed run")
		})
	}
}

func TestService_FailedRunRemovesUpload(t *testing.T) {
	svc, fs := newTestService(t)

	_, err := svc.Clean(context.Background(), CleanRequest{
		FileName: "bad.csv",
		Body:     strings.NewReader("a,b\n1,2,3\n"),
	})
	require.Error(t, err)
	assert.Equal(t, "FILE002", MapError(err).Code)

	exists, err := afero.Exists(fs, "uploads/bad.csv")
	require.NoError(t, err)
	assert.False(t, exists)

	// A corrected file under the same name still goes through.
	res, err := svc.Clean(context.Background(), CleanRequest{
		FileName: "bad.csv",
		Body:     strings.NewReader("a,b\n1,2\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "bad.csv", res.FileName)
}

func TestService_CleanCancelled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Clean(ctx, CleanRequest{FileName: "a.csv", Body: strings.NewReader(sampleCSV)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_RunLookup(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Clean(context.Background(), CleanRequest{FileName: "a.csv", Body: strings.NewReader(sampleCSV)})
	require.NoError(t, err)

	got, err := svc.Run(res.ID)
	require.NoError(t, err)
	assert.Equal(t, res, got)

	_, err = svc.Run("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestService_RunEviction(t *testing.T) {
	svc, _ := newTestService(t, WithRetention(20*time.Millisecond))

	res, err := svc.Clean(context.Background(), CleanRequest{FileName: "a.csv", Body: strings.NewReader(sampleCSV)})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := svc.Run(res.ID)
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestService_RetentionDisabled(t *testing.T) {
	svc, _ := newTestService(t, WithRetention(0))

	res, err := svc.Clean(context.Background(), CleanRequest{FileName: "a.csv", Body: strings.NewReader(sampleCSV)})
	require.NoError(t, err)

	_, err = svc.Run(res.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestService_OpenCleaned(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Clean(context.Background(), CleanRequest{FileName: "a.csv", Body: strings.NewReader(sampleCSV)})
	require.NoError(t, err)

	f, format, err := svc.OpenCleaned("cleaned_a.csv")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, table.FormatCSV, format)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "name,qty,tag\n"))

	_, _, err = svc.OpenCleaned("cleaned_missing.csv")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

