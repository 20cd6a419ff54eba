package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"givetrack/internal/donation/models"
	historystore "givetrack/internal/donation/store/history"
	id "givetrack/pkg/domain"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		old  map[string]string
		next map[string]string
		want map[string]models.FieldChange
	}{
		{
			name: "changed value is recorded with old and new",
			old:  map[string]string{"title": "Bookshelf", "city": "Springfield"},
			next: map[string]string{"title": "Oak bookshelf"},
			want: map[string]models.FieldChange{"title": {Old: "Bookshelf", New: "Oak bookshelf"}},
		},
		{
			name: "identical value produces no change",
			old:  map[string]string{"title": "Bookshelf"},
			next: map[string]string{"title": "Bookshelf"},
			want: map[string]models.FieldChange{},
		},
		{
			name: "field absent from next is ignored even if old differs elsewhere",
			old:  map[string]string{"title": "Bookshelf", "city": "Springfield"},
			next: map[string]string{},
			want: map[string]models.FieldChange{},
		},
		{
			name: "new field has an empty old value",
			old:  map[string]string{},
			next: map[string]string{"description": "five shelves"},
			want: map[string]models.FieldChange{"description": {Old: "", New: "five shelves"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Diff(tt.old, tt.next))
		})
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("empty diff writes nothing", func(t *testing.T) {
		store := historystore.NewInMemory()
		r := NewRecorder(store)

		entry, err := r.Record(ctx, models.OwnerDonation, id.NewDonationID().String(), nil, time.Now())
		require.NoError(t, err)
		require.Nil(t, entry)
	})

	t.Run("non-empty diff appends an immutable entry", func(t *testing.T) {
		r := NewRecorder(historystore.NewInMemory())
		ownerID := id.NewDonationID().String()
		changes := map[string]models.FieldChange{"title": {Old: "a", New: "b"}}

		entry, err := r.Record(ctx, models.OwnerDonation, ownerID, changes, time.Now())
		require.NoError(t, err)
		require.NotNil(t, entry)
		require.False(t, entry.ID.IsNil())

		entries, err := r.List(ctx, models.OwnerDonation, ownerID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, changes, entries[0].Changes)
	})

	t.Run("unknown owner type is rejected", func(t *testing.T) {
		r := NewRecorder(historystore.NewInMemory())
		_, err := r.Record(ctx, models.OwnerType("bogus"), "x",
			map[string]models.FieldChange{"f": {New: "v"}}, time.Now())
		require.Error(t, err)
	})
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(historystore.NewInMemory())
	ownerID := id.NewDonationID().String()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := r.Record(ctx, models.OwnerDonation, ownerID,
			map[string]models.FieldChange{"title": {New: string(rune('a' + i))}},
			base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	entries, err := r.List(ctx, models.OwnerDonation, ownerID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "c", entries[0].Changes["title"].New)
	require.Equal(t, "a", entries[2].Changes["title"].New)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(historystore.NewInMemory())
	ownerID := id.NewDonationID().String()

	_, err := r.Record(ctx, models.OwnerDonation, ownerID,
		map[string]models.FieldChange{"title": {New: "x"}}, time.Now())
	require.NoError(t, err)

	n, err := r.Purge(ctx, models.OwnerDonation, ownerID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	entries, err := r.List(ctx, models.OwnerDonation, ownerID)
	require.NoError(t, err)
	require.Empty(t, entries)
}
