package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	indexes := []string{"idx_reminders_due_at", "idx_reminders_pending"}
	for _, idx := range indexes {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

func TestCreateAndGetReminder(t *testing.T) {
	s := openTestStore(t)

	due := time.Now().Add(time.Hour).Truncate(time.Second)
	created, err := s.CreateReminder(Draft{
		Title:       "Water plants",
		Description: "the ones on the balcony",
		DueAt:       due,
		Priority:    PriorityUrgent,
		Channel:     ChannelRing,
		Ringtone:    "bell",
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateReminder did not assign an ID")
	}
	if created.IsCompleted {
		t.Error("new reminder must not be completed")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreateReminder did not assign CreatedAt")
	}

	got, err := s.GetReminder(created.ID)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if got.Title != "Water plants" || got.Description != "the ones on the balcony" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.DueAt.Equal(due) {
		t.Errorf("DueAt = %v, want %v", got.DueAt, due)
	}
	if got.Priority != PriorityUrgent || got.Channel != ChannelRing || got.Ringtone != "bell" {
		t.Errorf("fields mismatch: %+v", got)
	}
}

func TestCreateReminderDefaults(t *testing.T) {
	s := openTestStore(t)

	r, err := s.CreateReminder(Draft{Title: "Call mom", DueAt: time.Now()})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if r.Priority != PriorityNormal {
		t.Errorf("Priority = %q, want %q", r.Priority, PriorityNormal)
	}
	if r.Channel != ChannelAlarm {
		t.Errorf("Channel = %q, want %q", r.Channel, ChannelAlarm)
	}
}

func TestCreateReminderValidation(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CreateReminder(Draft{Title: "", DueAt: time.Now()}); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := s.CreateReminder(Draft{Title: "x", DueAt: time.Now(), Priority: "asap"}); err == nil {
		t.Error("expected error for invalid priority")
	}
	if _, err := s.CreateReminder(Draft{Title: "x", DueAt: time.Now(), Channel: "pigeon"}); err == nil {
		t.Error("expected error for invalid channel")
	}
}

func TestGetReminderNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetReminder("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReminder(missing) = %v, want ErrNotFound", err)
	}
}

func TestListPendingExcludesCompleted(t *testing.T) {
	s := openTestStore(t)

	a, _ := s.CreateReminder(Draft{Title: "A", DueAt: time.Now().Add(time.Minute)})
	b, _ := s.CreateReminder(Draft{Title: "B", DueAt: time.Now().Add(2 * time.Minute)})

	if _, err := s.CompleteReminder(a.ID); err != nil {
		t.Fatalf("CompleteReminder: %v", err)
	}

	pending, err := s.ListPendingReminders()
	if err != nil {
		t.Fatalf("ListPendingReminders: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("pending = %+v, want only %s", pending, b.ID)
	}

	all, err := s.ListReminders()
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListReminders returned %d reminders, want 2", len(all))
	}
}

func TestListRemindersOrderedByDueAt(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().Truncate(time.Second)
	s.CreateReminder(Draft{Title: "later", DueAt: now.Add(2 * time.Hour)})
	s.CreateReminder(Draft{Title: "sooner", DueAt: now.Add(time.Hour)})

	all, err := s.ListReminders()
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(all) != 2 || all[0].Title != "sooner" {
		t.Errorf("unexpected order: %+v", all)
	}
}

func TestUpdateReminder(t *testing.T) {
	s := openTestStore(t)

	r, _ := s.CreateReminder(Draft{Title: "Old", DueAt: time.Now().Truncate(time.Second)})

	newTitle := "New"
	newDue := time.Now().Add(3 * time.Hour).Truncate(time.Second)
	urgent := PriorityUrgent
	updated, err := s.UpdateReminder(r.ID, Patch{Title: &newTitle, DueAt: &newDue, Priority: &urgent})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if updated.Title != "New" || !updated.DueAt.Equal(newDue) || updated.Priority != PriorityUrgent {
		t.Errorf("updated = %+v", updated)
	}

	// Unpatched fields survive.
	got, _ := s.GetReminder(r.ID)
	if got.Channel != ChannelAlarm {
		t.Errorf("Channel = %q, want unchanged %q", got.Channel, ChannelAlarm)
	}
}

func TestUpdateReminderRejectsEmptyTitle(t *testing.T) {
	s := openTestStore(t)

	r, _ := s.CreateReminder(Draft{Title: "Keep", DueAt: time.Now()})
	empty := ""
	if _, err := s.UpdateReminder(r.ID, Patch{Title: &empty}); err == nil {
		t.Error("expected error for empty title patch")
	}
}

func TestUpdateReminderNotFound(t *testing.T) {
	s := openTestStore(t)

	title := "x"
	_, err := s.UpdateReminder("missing", Patch{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateReminder(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteReminder(t *testing.T) {
	s := openTestStore(t)

	r, _ := s.CreateReminder(Draft{Title: "gone", DueAt: time.Now()})
	if err := s.DeleteReminder(r.ID); err != nil {
		t.Fatalf("DeleteReminder: %v", err)
	}
	if _, err := s.GetReminder(r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReminder after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteReminder(r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteReminder = %v, want ErrNotFound", err)
	}
}

func TestCompleteReminderNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CompleteReminder("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteReminder(missing) = %v, want ErrNotFound", err)
	}
}

func TestCustomRingtonesCRUD(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveCustomRingtone("bird", "https://example.com/bird.mp3"); err != nil {
		t.Fatalf("SaveCustomRingtone: %v", err)
	}
	if err := s.SaveCustomRingtone("horn", "https://example.com/horn.mp3"); err != nil {
		t.Fatalf("SaveCustomRingtone: %v", err)
	}

	// Upsert replaces the source without duplicating the row.
	if err := s.SaveCustomRingtone("bird", "https://example.com/bird2.mp3"); err != nil {
		t.Fatalf("SaveCustomRingtone upsert: %v", err)
	}

	tones, err := s.ListCustomRingtones()
	if err != nil {
		t.Fatalf("ListCustomRingtones: %v", err)
	}
	if len(tones) != 2 {
		t.Fatalf("got %d ringtones, want 2", len(tones))
	}
	if tones[0].Name != "bird" || tones[0].Source != "https://example.com/bird2.mp3" {
		t.Errorf("first ringtone = %+v", tones[0])
	}
	if tones[1].Name != "horn" {
		t.Errorf("insertion order not preserved: %+v", tones)
	}

	if err := s.DeleteCustomRingtone("bird"); err != nil {
		t.Fatalf("DeleteCustomRingtone: %v", err)
	}
	if err := s.DeleteCustomRingtone("bird"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteCustomRingtone = %v, want ErrNotFound", err)
	}

	if err := s.SaveCustomRingtone("", "src"); err == nil {
		t.Error("expected error for empty name")
	}
}
