package notestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

func makeNote(id, number string, updatedAt time.Time) *model.DeliveryNote {
	return &model.DeliveryNote{
		Base: model.Base{
			UUID:      id,
			UpdatedAt: updatedAt,
		},
		NoteNumber:  number,
		DriverName:  "Budi Santoso",
		Status:      model.NoteStatusAwaiting,
		SealNumbers: model.SealNumbers{"SN-1", "SN-2"},
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := New()
	store.Put(makeNote("id-1", "SJ-001", time.Now()))

	first, ok := store.Get("id-1")
	require.True(t, ok)

	// Mutating the returned note must not leak into the store
	first.DriverName = "changed"
	first.SealNumbers[0] = "changed"

	second, ok := store.Get("id-1")
	require.True(t, ok)
	require.Equal(t, "Budi Santoso", second.DriverName)
	require.Equal(t, model.SealNumbers{"SN-1", "SN-2"}, second.SealNumbers)
}

func TestStorePutCopiesInput(t *testing.T) {
	store := New()
	note := makeNote("id-1", "SJ-001", time.Now())
	store.Put(note)

	note.DriverName = "changed"

	got, ok := store.Get("id-1")
	require.True(t, ok)
	require.Equal(t, "Budi Santoso", got.DriverName)
}

func TestStoreListOrdering(t *testing.T) {
	store := New()
	base := time.Now()
	store.Put(makeNote("id-old", "SJ-001", base.Add(-2*time.Hour)))
	store.Put(makeNote("id-new", "SJ-003", base))
	store.Put(makeNote("id-mid", "SJ-002", base.Add(-time.Hour)))

	notes := store.List()
	require.Len(t, notes, 3)
	require.Equal(t, "id-new", notes[0].UUID)
	require.Equal(t, "id-mid", notes[1].UUID)
	require.Equal(t, "id-old", notes[2].UUID)
}

func TestStoreLoadReplaces(t *testing.T) {
	store := New()
	store.Put(makeNote("id-stale", "SJ-000", time.Now()))

	store.Load([]*model.DeliveryNote{
		makeNote("id-1", "SJ-001", time.Now()),
		makeNote("id-2", "SJ-002", time.Now()),
	})

	require.Equal(t, 2, store.Len())
	_, ok := store.Get("id-stale")
	require.False(t, ok)
}

func TestStoreRemove(t *testing.T) {
	store := New()
	store.Put(makeNote("id-1", "SJ-001", time.Now()))

	store.Remove("id-1")

	require.Equal(t, 0, store.Len())
	_, ok := store.Get("id-1")
	require.False(t, ok)
}
