package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	blobs := newMemBlobs()

	for _, data := range []string{"referenced", "orphan", "fresh orphan"} {
		_, err := blobs.Store(ctx, []byte(data))
		require.NoError(t, err)
	}
	db.images[1] = []string{"blob-1"}
	blobs.created["blob-1"] = testNow.Add(-2 * time.Hour)
	blobs.created["blob-2"] = testNow.Add(-2 * time.Hour)
	blobs.created["blob-3"] = testNow.Add(-time.Minute)

	s := &BlobSweeper{
		Images: memImages{db},
		Blobs:  blobs,
		Grace:  time.Hour,
		Logger: testLogger,
		Now:    func() time.Time { return testNow },
	}
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"blob-2"}, blobs.deleted)

	_, err = blobs.Retrieve(ctx, "blob-1")
	assert.NoError(t, err)
	_, err = blobs.Retrieve(ctx, "blob-3")
	assert.NoError(t, err, "blobs inside the grace period are kept")
}

func TestBlobSweeper_ReclaimsRolledBackCreate(t *testing.T) {
	ctx := context.Background()
	f := newEventFixture(t)
	f.tx.commitErr = assert.AnError

	_, err := f.svc.CreateEvent(ctx, registration())
	require.Error(t, err)
	require.Equal(t, 3, f.blobs.count())

	s := &BlobSweeper{
		Images: memImages{f.db},
		Blobs:  f.blobs,
		Grace:  time.Hour,
		Logger: testLogger,
		Now:    func() time.Time { return testNow },
	}
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, f.blobs.count())
}
