package db

import "testing"

func TestOpenMemoryMigrates(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	for _, table := range []string{"sessions", "turns", "audit_entries"} {
		var name string
		err := d.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestFallbackLevelCheckConstraint(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	_, err = d.Exec(`INSERT INTO sessions (id, fallback_level) VALUES ('s1', 7)`)
	if err == nil {
		t.Error("fallback_level 7 should violate the CHECK constraint")
	}
	_, err = d.Exec(`INSERT INTO sessions (id, fallback_level) VALUES ('s1', 4)`)
	if err != nil {
		t.Errorf("fallback_level 4 should be accepted: %v", err)
	}
}
