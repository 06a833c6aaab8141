package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

func TestGet_MaterializesDefaults(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *got)

	var stored models.Settings
	found, err := st.Get(ctx, store.PathSettings, &stored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.DefaultSettings(), stored)
}

func TestUpdateAndReset(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	next := models.DefaultSettings()
	next.APIEnabled = false
	next.AdminPassword = "s3cret"
	_, err := svc.Update(ctx, &next)
	require.NoError(t, err)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.False(t, got.APIEnabled)
	assert.Equal(t, "s3cret", got.AdminPassword)

	_, err = svc.Reset(ctx)
	require.NoError(t, err)
	got, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.APIEnabled)
}

func TestVerifyPassword(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	tests := []struct {
		kind     string
		password string
		want     bool
	}{
		{KindWebsite, "123456", true},
		{KindPrivate, "654321", true},
		{KindPrivate, "123456", false},
		{KindAdmin, "123456", true},
		{KindAdmin, "", false},
		{KindAdmin, "1234567", false},
	}

	for _, tt := range tests {
		ok, err := svc.VerifyPassword(ctx, tt.kind, tt.password)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s/%q", tt.kind, tt.password)
	}

	_, err := svc.VerifyPassword(ctx, "root", "123456")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestVerifyPassword_EmptyStoredPasswordNeverMatches(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	next := models.DefaultSettings()
	next.WebsitePassword = ""
	_, err := svc.Update(ctx, &next)
	require.NoError(t, err)

	ok, err := svc.VerifyPassword(ctx, KindWebsite, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApply_KeepsUnsetFields(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	limit := 5
	got, err := svc.Apply(ctx, &UpdateRequest{RateLimit: &limit})
	require.NoError(t, err)

	want := models.DefaultSettings()
	want.RateLimit = 5
	assert.Equal(t, want, *got)

	ok, err := svc.VerifyPassword(ctx, KindAdmin, "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	off := false
	pw := "n3w"
	got, err = svc.Apply(ctx, &UpdateRequest{APIEnabled: &off, WebsitePassword: &pw})
	require.NoError(t, err)
	assert.False(t, got.APIEnabled)
	assert.True(t, got.WebsiteEnabled)
	assert.Equal(t, "n3w", got.WebsitePassword)
	assert.Equal(t, 5, got.RateLimit)
}

func TestApply_RejectsEmptyAdminPassword(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	empty := ""
	_, err := svc.Apply(ctx, &UpdateRequest{AdminPassword: &empty})
	assert.ErrorIs(t, err, ErrEmptyAdminPassword)

	ok, err := svc.VerifyPassword(ctx, KindAdmin, "123456")
	require.NoError(t, err)
	assert.True(t, ok)
}
