package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var out map[string]int
	err := repo.Get(ctx, "stats:research", &out)
	assert.True(t, appErrors.Is(err, appErrors.ErrCacheMiss))

	require.NoError(t, repo.Set(ctx, "stats:research", map[string]int{"open": 1}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "stats:research"))
	require.NoError(t, repo.DeleteByPattern(ctx, "report:funding:*"))
}
