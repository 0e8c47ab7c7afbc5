package tiles

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/folio/internal/db/dbtest"
	"github.com/memohai/folio/internal/db/sqlc"
	"github.com/memohai/folio/internal/media"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *sqlc.Queries) {
	t.Helper()
	conn, q := dbtest.Open(t)
	svc := NewService(dbtest.Logger(), conn, q)
	svc.now = func() time.Time { return testNow }
	return svc, q
}

func ptr[T any](v T) *T { return &v }

func validRequest(slug string) CreateRequest {
	return CreateRequest{Slug: slug, Title: "Title " + slug, TargetURL: "https://" + slug + ".example.com"}
}

func TestCreateAppliesDefaultsAndOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validRequest("one"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCTALabel, first.CTALabel)
	assert.True(t, first.Visible)
	assert.Nil(t, first.PublishAt)
	assert.Equal(t, int64(1), first.OrderIndex)
	assert.Equal(t, testNow, first.CreatedAt)

	second, err := svc.Create(ctx, validRequest("two"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.OrderIndex)

	_, err = svc.Create(ctx, validRequest("one"))
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestCreateSanitizesAndTruncates(t *testing.T) {
	svc, _ := newTestService(t)
	req := validRequest("clean")
	req.Title = "<script>alert(1)</script><b>Hello</b>"
	req.Blurb = strings.Repeat("a", 600)

	tile, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Hello", tile.Title)
	assert.Len(t, tile.Blurb, MaxBlurbLength)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"missing slug", func(r *CreateRequest) { r.Slug = "" }},
		{"uppercase slug", func(r *CreateRequest) { r.Slug = "Paris" }},
		{"spaces in slug", func(r *CreateRequest) { r.Slug = "a b" }},
		{"missing title", func(r *CreateRequest) { r.Title = "" }},
		{"relative url", func(r *CreateRequest) { r.TargetURL = "/local" }},
		{"script url", func(r *CreateRequest) { r.TargetURL = "javascript:alert(1)" }},
		{"short hex", func(r *CreateRequest) { r.AccentHex = "#fff" }},
		{"bad hex", func(r *CreateRequest) { r.AccentHex = "red" }},
		{"bad publish date", func(r *CreateRequest) { r.PublishAt = "tomorrow" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("valid")
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidTile)
		})
	}

	req := validRequest("with-media")
	req.BgMediaID = ptr(int64(99))
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnknownMedia)
}

func TestUpdateIsPartial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateRequest{
		Slug: "paris", Title: "Paris", Blurb: "City", TargetURL: "https://paris.example.com",
		AccentHex: "#e76f51", PublishAt: "2024-06-01T09:00",
	})
	require.NoError(t, err)
	require.NotNil(t, created.PublishAt)

	updated, err := svc.Update(ctx, created.ID, UpdateRequest{Title: ptr("Paris!"), Visible: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Paris!", updated.Title)
	assert.False(t, updated.Visible)
	assert.Equal(t, "City", updated.Blurb)
	assert.Equal(t, "#e76f51", updated.AccentHex)
	assert.Equal(t, created.PublishAt, updated.PublishAt)

	cleared, err := svc.Update(ctx, created.ID, UpdateRequest{PublishAt: ptr(""), AccentHex: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.PublishAt)
	assert.Empty(t, cleared.AccentHex)

	_, err = svc.Update(ctx, created.ID, UpdateRequest{})
	assert.ErrorIs(t, err, ErrNoFields)
	_, err = svc.Update(ctx, created.ID, UpdateRequest{TargetURL: ptr("not a url")})
	assert.ErrorIs(t, err, ErrInvalidTile)
	_, err = svc.Update(ctx, 404, UpdateRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrTileNotFound)

	_, err = svc.Create(ctx, validRequest("dubai"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, UpdateRequest{Slug: ptr("dubai")})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestListPublicFiltersAndAttachesMedia(t *testing.T) {
	svc, q := newTestService(t)
	ctx := context.Background()

	m, err := q.CreateMedia(ctx, sqlc.CreateMediaParams{
		OriginalName: "bg.jpg", Hash: "abc", Format: "jpeg",
		PathOriginal: "uploads/abc.jpg", PathWebp: "uploads/abc.webp",
		Width: 900, Height: 1200, SizeBytes: 1,
		SizesJson: `[{"width":768,"height":1024,"path":"uploads/abc_768w.webp"}]`,
		CreatedAt: 1,
	})
	require.NoError(t, err)

	withMedia := validRequest("shown")
	withMedia.BgMediaID = ptr(m.ID)
	_, err = svc.Create(ctx, withMedia)
	require.NoError(t, err)

	hidden := validRequest("hidden")
	hidden.Visible = ptr(false)
	_, err = svc.Create(ctx, hidden)
	require.NoError(t, err)

	future := validRequest("future")
	future.PublishAt = testNow.Add(time.Hour).Format(time.RFC3339)
	_, err = svc.Create(ctx, future)
	require.NoError(t, err)

	past := validRequest("past")
	past.PublishAt = testNow.Add(-time.Hour).Format(time.RFC3339)
	_, err = svc.Create(ctx, past)
	require.NoError(t, err)

	public, err := svc.ListPublic(ctx, testNow)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, "shown", public[0].Slug)
	assert.Equal(t, "past", public[1].Slug)
	assert.Nil(t, public[1].Media)

	require.NotNil(t, public[0].Media)
	assert.Equal(t, media.URL(m.ID), public[0].Media.PathOriginal)
	assert.Equal(t, media.WebPURL(m.ID), public[0].Media.PathWebP)
	assert.Equal(t, []media.Size{{Width: 768, Height: 1024, URL: media.VariantURL(m.ID, 768)}}, public[0].Media.Sizes)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	require.NotNil(t, all[0].Media)
	assert.Equal(t, int64(900), all[0].Media.Width)

	later, err := svc.ListPublic(ctx, testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, later, 3)
}

func TestReorder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, validRequest("a"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, validRequest("b"))
	require.NoError(t, err)
	c, err := svc.Create(ctx, validRequest("c"))
	require.NoError(t, err)

	n, err := svc.Reorder(ctx, []int64{c.ID, 0, a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].Slug, list[1].Slug, list[2].Slug})
	assert.Equal(t, []int64{0, 2, 3}, []int64{list[0].OrderIndex, list[1].OrderIndex, list[2].OrderIndex})
}

func TestParseIDs(t *testing.T) {
	req := ReorderRequest{IDs: []any{float64(3), "7", "x", 1.5, nil, float64(-2), " 9 "}}
	assert.Equal(t, []int64{3, 7, 0, 0, 0, 0, 9}, req.ParseIDs())
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tile, err := svc.Create(ctx, validRequest("gone"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tile.ID))
	assert.ErrorIs(t, svc.Delete(ctx, tile.ID), ErrTileNotFound)
	_, err = svc.Get(ctx, tile.ID)
	assert.ErrorIs(t, err, ErrTileNotFound)
}

func TestSeedDemoSkipsExisting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest("paris"))
	require.NoError(t, err)

	n, err := svc.SeedDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DemoTiles)-1, n)

	n, err = svc.SeedDemo(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
