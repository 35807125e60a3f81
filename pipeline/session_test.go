package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/golbat/metadata"
	"github.com/use-agent/golbat/models"
)

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not settle")
	}
}

func TestSession_Lifecycle(t *testing.T) {
	srv := newSite(t, `<title>First</title>`)
	s := NewSession(newTestPipeline(), false)

	state, rec, err := s.Snapshot()
	assert.Equal(t, StateIdle, state)
	assert.Nil(t, rec)
	assert.NoError(t, err)

	waitDone(t, s.Fetch(context.Background(), srv.URL))

	state, rec, err = s.Snapshot()
	assert.Equal(t, StatePopulated, state)
	assert.NoError(t, err)
	assert.Equal(t, "First", rec[metadata.KeyTitle])

	s.Clear()
	state, rec, _ = s.Snapshot()
	assert.Equal(t, StateIdle, state)
	assert.Nil(t, rec)
}

func TestSession_NewFetchSupersedesInFlight(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte("<title>Slow</title>"))
	}))
	defer slow.Close()
	defer close(release)

	fast := newSite(t, `<title>Fast</title>`)
	s := NewSession(newTestPipeline(), false)

	first := s.Fetch(context.Background(), slow.URL)
	state, _, _ := s.Snapshot()
	assert.Equal(t, StateFetching, state)

	second := s.Fetch(context.Background(), fast.URL)
	waitDone(t, first)
	waitDone(t, second)

	state, rec, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatePopulated, state)
	assert.Equal(t, "Fast", rec[metadata.KeyTitle])
}

func TestSession_ErrorState(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	s := NewSession(newTestPipeline(), false)

	waitDone(t, s.Fetch(context.Background(), srv.URL))

	state, rec, err := s.Snapshot()
	assert.Equal(t, StateError, state)
	assert.Nil(t, rec)
	var me *models.MetadataError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, models.ErrCodeUpstreamStatus, me.Code)
}

func TestSession_InvalidInputNeverFetches(t *testing.T) {
	s := NewSession(newTestPipeline(), false)

	waitDone(t, s.Fetch(context.Background(), "   "))

	state, _, err := s.Snapshot()
	assert.Equal(t, StateError, state)
	var me *models.MetadataError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, models.ErrCodeInvalidInput, me.Code)
}

func TestSession_RefreshRefetches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			hits.Add(1)
		}
		_, _ = w.Write([]byte("<title>t</title>"))
	}))
	defer srv.Close()
	s := NewSession(newTestPipeline(), false)

	waitDone(t, s.Refresh(context.Background()))
	assert.Zero(t, hits.Load())

	waitDone(t, s.Fetch(context.Background(), srv.URL))
	waitDone(t, s.Refresh(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	srv := newSite(t, `<title>Mine</title>`)
	s := NewSession(newTestPipeline(), false)
	waitDone(t, s.Fetch(context.Background(), srv.URL))

	_, rec, _ := s.Snapshot()
	rec[metadata.KeyTitle] = "changed"

	_, again, _ := s.Snapshot()
	assert.Equal(t, "Mine", again[metadata.KeyTitle])
}

func TestSession_RefreshAfterInvalidInputDoesNothing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			hits.Add(1)
		}
		_, _ = w.Write([]byte("<title>old</title>"))
	}))
	defer srv.Close()
	s := NewSession(newTestPipeline(), false)

	waitDone(t, s.Fetch(context.Background(), srv.URL))
	waitDone(t, s.Fetch(context.Background(), "ftp://example.com"))
	waitDone(t, s.Refresh(context.Background()))

	assert.Equal(t, int32(1), hits.Load())
	state, rec, err := s.Snapshot()
	assert.Equal(t, StateError, state)
	assert.Nil(t, rec)
	var me *models.MetadataError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, models.ErrCodeInvalidInput, me.Code)
}
