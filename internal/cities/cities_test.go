package cities

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"name,country,lat,lon",
		"Paris,France,48.8566,2.3522",
		"New York,United States,40.7128,-74.0060",
		"Broken,Nowhere,not-a-number,0",
		"NoCountry,,10,10",
		"OffPlanet,Mars,95.0,10.0",
		"Sydney,Australia,-33.8688,151.2093",
	}, "\n")

	got, err := ParseCSV(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("parsed %d cities, want 3", len(got))
	}
	if got[0].Name != "Paris" || got[0].Country != "France" {
		t.Errorf("first city = %s/%s, want Paris/France", got[0].Name, got[0].Country)
	}
	if got[1].Lng != -74.0060 {
		t.Errorf("New York lon = %v, want -74.006", got[1].Lng)
	}
	if got[2].Lat != -33.8688 {
		t.Errorf("Sydney lat = %v, want -33.8688", got[2].Lat)
	}
}

func TestParseCSVNoHeader(t *testing.T) {
	input := "Paris,France,48.8566,2.3522\nSydney,Australia,-33.8688,151.2093\n"
	got, err := ParseCSV(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parsed %d cities, want 2 when no header present", len(got))
	}
}

func TestParseCSVEmpty(t *testing.T) {
	got, err := ParseCSV(strings.NewReader(""), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("parsed %d cities from empty input, want 0", len(got))
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	if s.Get() != nil {
		t.Fatal("new store not empty")
	}
	if s.Count() != 0 {
		t.Errorf("empty store count = %d, want 0", s.Count())
	}
	if s.AgeSeconds() != -1 {
		t.Errorf("empty store age = %v, want -1", s.AgeSeconds())
	}

	cities, err := ParseCSV(strings.NewReader("Paris,France,48.85,2.35\n"), testLogger())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s.Set(&Dataset{Source: "test", LoadedAt: time.Now().Add(-time.Minute), Cities: cities})

	if s.Count() != 1 {
		t.Errorf("count = %d, want 1", s.Count())
	}
	if age := s.AgeSeconds(); age < 59 || age > 61 {
		t.Errorf("age = %v, want about 60", age)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)

	base := time.Now().Truncate(time.Second)
	for i, payload := range []string{"first", "second", "third"} {
		if err := c.Write([]byte(payload), base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	data, ts, err := c.LoadLatest()
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if string(data) != "third" {
		t.Errorf("latest data = %q, want %q", data, "third")
	}
	if !ts.Equal(base.Add(2 * time.Second)) {
		t.Errorf("latest ts = %v, want %v", ts, base.Add(2*time.Second))
	}

	files, err := c.listFiles()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("cached files = %d, want 2 after pruning", len(files))
	}
}

func TestCacheLoadLatestEmpty(t *testing.T) {
	c := NewCache(t.TempDir(), 5)
	if _, _, err := c.LoadLatest(); err == nil {
		t.Fatal("expected error on empty cache")
	}
}
