package export

import (
	"strings"
	"testing"
	"time"

	syncpkg "sportsync/internal/sync"
)

func sampleTable() *syncpkg.ResultTable {
	return &syncpkg.ResultTable{
		Columns: []string{"opta_object_id", "wyscout_object_id", "team_name", "match_date"},
		Rows: []syncpkg.ResultRow{
			{
				"opta_object_id":    "opta-1",
				"wyscout_object_id": "wy-1",
				"team_name":         "Arsenal",
				"match_date":        time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC),
			},
			{
				"opta_object_id": "opta-2",
				"team_name":      "Chelsea",
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var sb strings.Builder
	if err := NewExporter().WriteCSV(&sb, sampleTable()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), sb.String())
	}
	if lines[0] != "opta_object_id,wyscout_object_id,team_name,match_date" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "opta-1,wy-1,Arsenal,2024-08-17" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "opta-2,,Chelsea," {
		t.Errorf("row 2 = %q, null cells must be empty", lines[2])
	}
}

func TestRenderTable(t *testing.T) {
	out := NewExporter().RenderTable(sampleTable())
	for _, want := range []string{"OPTA_OBJECT_ID", "opta-1", "Arsenal", "Chelsea"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if out := NewExporter().RenderTable(&syncpkg.ResultTable{}); out != "" {
		t.Errorf("empty table rendered %q, want empty string", out)
	}
}
