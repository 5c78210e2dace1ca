package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sportsync/internal/pkg/config"
)

func providerConfig(name, path, format string) config.ProviderConfig {
	return config.ProviderConfig{Name: name, Path: path, Format: format}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV_TypedCells(t *testing.T) {
	path := writeFile(t, "teams.csv", "object_id,team_name,founded,match_date\nopta-1,Arsenal,1886,2024-08-17\nopta-2,Chelsea,,\n")

	records, err := LoadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first["object_id"] != "opta-1" {
		t.Errorf("object_id = %v, want opta-1", first["object_id"])
	}
	if first["founded"] != int64(1886) {
		t.Errorf("founded = %v (%T), want int64 1886", first["founded"], first["founded"])
	}
	date, ok := first["match_date"].(time.Time)
	if !ok || !date.Equal(time.Date(2024, 8, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("match_date = %v, want 2024-08-17", first["match_date"])
	}

	second := records[1]
	if second["founded"] != nil {
		t.Errorf("empty cell = %v, want nil", second["founded"])
	}
}

func TestLoadJSON_StringCoercion(t *testing.T) {
	path := writeFile(t, "players.json", `[{"object_id": "p-1", "player_name": "Jude Bellingham", "birth_date": "2003-06-29", "jersey_number": 5}]`)

	records, err := LoadJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records[0]["birth_date"].(time.Time); !ok {
		t.Errorf("birth_date = %T, want time.Time", records[0]["birth_date"])
	}
	if records[0]["jersey_number"] != float64(5) {
		t.Errorf("jersey_number = %v (%T), want 5", records[0]["jersey_number"], records[0]["jersey_number"])
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "teams.xml", "<teams/>")

	if _, err := Load(providerConfig("opta", path, "")); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestLoad_FormatFromExtension(t *testing.T) {
	path := writeFile(t, "teams.csv", "object_id,team_name\nopta-1,Arsenal\n")

	content, err := Load(providerConfig("opta", path, ""))
	if err != nil {
		t.Fatal(err)
	}
	if content.Provider != "opta" {
		t.Errorf("provider = %q, want opta", content.Provider)
	}
	if len(content.Records) != 1 {
		t.Errorf("got %d records, want 1", len(content.Records))
	}
}
