package sync

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
)

func TestSynchronize_DuplicateProviderTag(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = engine.Synchronize([]SyncableContent{
		{Provider: "opta", Records: []Record{team("a", "Arsenal")}},
		{Provider: "opta", Records: []Record{team("b", "Chelsea")}},
	})
	if !errors.Is(err, ErrDuplicateProvider) {
		t.Errorf("err = %v, want ErrDuplicateProvider", err)
	}
}

func TestSynchronize_MissingRequiredColumn(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = engine.Synchronize([]SyncableContent{
		{Provider: "opta", Records: []Record{{ColObjectID: "a"}}},
	})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
	if !strings.Contains(err.Error(), ColTeamName) {
		t.Errorf("error %q does not identify the missing column", err)
	}
}

func TestSynchronize_UnknownEntity(t *testing.T) {
	if _, err := NewEngine(EntityType("stadium"), Options{}); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("err = %v, want ErrUnknownEntity", err)
	}
}

func TestSynchronize_EmptyProviderIsValid(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}
	table, err := engine.Synchronize([]SyncableContent{
		{Provider: "opta", Records: []Record{team("opta-1", "Arsenal")}},
		{Provider: "wyscout"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
	if _, ok := table.Rows[0].ID("wyscout"); ok {
		t.Error("empty provider should contribute a null identifier")
	}
	if id, _ := table.Rows[0].ID("opta"); id != "opta-1" {
		t.Errorf("opta id = %q, want opta-1", id)
	}
}

func TestSynchronize_ThirdProviderWithForeignNameStaysResidual(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}
	table, err := engine.Synchronize([]SyncableContent{
		{Provider: "opta", Records: []Record{team("opta-1", "Arsenal")}},
		{Provider: "wyscout", Records: []Record{team("wy-1", "Arsenal")}},
		{Provider: "sofa", Records: []Record{team("sofa-1", "Dinamo Zagreb")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}

	var linked, residual ResultRow
	for _, row := range table.Rows {
		if _, ok := row.ID("sofa"); ok {
			residual = row
		} else {
			linked = row
		}
	}
	if linked == nil || residual == nil {
		t.Fatalf("expected one linked and one residual row, got %v", table.Rows)
	}
	if id, _ := linked.ID("opta"); id != "opta-1" {
		t.Errorf("linked opta id = %q, want opta-1", id)
	}
	if id, _ := linked.ID("wyscout"); id != "wy-1" {
		t.Errorf("linked wyscout id = %q, want wy-1", id)
	}
	if _, ok := residual.ID("opta"); ok {
		t.Error("residual row must only carry the sofa identifier")
	}
	if _, ok := residual.ID("wyscout"); ok {
		t.Error("residual row must only carry the sofa identifier")
	}
}

// rowFingerprint reduces a row to its provider identifiers for set
// comparison across runs.
func rowFingerprint(row ResultRow, providers []string) string {
	parts := make([]string, 0, len(providers))
	for _, p := range providers {
		id, _ := row.ID(p)
		parts = append(parts, p+"="+id)
	}
	return strings.Join(parts, ",")
}

func tableFingerprint(table *ResultTable, providers []string) []string {
	out := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, rowFingerprint(row, providers))
	}
	sort.Strings(out)
	return out
}

func TestSynchronize_IdempotentUnderProviderPermutation(t *testing.T) {
	providers := []string{"opta", "wyscout", "sofa"}
	contents := map[string]SyncableContent{
		"opta": {Provider: "opta", Records: []Record{
			team("opta-1", "Bayer 04 Leverkusen"),
			team("opta-2", "Borussia Dortmund"),
		}},
		"wyscout": {Provider: "wyscout", Records: []Record{
			team("wy-1", "Borussia Dortmund"),
			team("wy-2", "Bayer Leverkusen"),
		}},
		"sofa": {Provider: "sofa", Records: []Record{
			team("sofa-1", "Bayer Leverkusen"),
		}},
	}

	permutations := [][]string{
		{"opta", "wyscout", "sofa"},
		{"sofa", "opta", "wyscout"},
		{"wyscout", "sofa", "opta"},
	}

	var baseline []string
	for i, order := range permutations {
		engine, err := NewEngine(EntityTeam, Options{})
		if err != nil {
			t.Fatal(err)
		}
		input := make([]SyncableContent, 0, len(order))
		for _, p := range order {
			input = append(input, contents[p])
		}
		table, err := engine.Synchronize(input)
		if err != nil {
			t.Fatal(err)
		}
		got := tableFingerprint(table, providers)
		if i == 0 {
			baseline = got
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(baseline) {
			t.Errorf("permutation %v produced %v, want %v", order, got, baseline)
		}
	}
}

func TestSynchronize_EveryRecordAppearsExactlyOnce(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}
	contents := []SyncableContent{
		{Provider: "opta", Records: []Record{
			team("opta-1", "Arsenal"),
			team("opta-2", "Chelsea FC"),
			team("opta-3", "Wolverhampton Wanderers"),
		}},
		{Provider: "wyscout", Records: []Record{
			team("wy-1", "Chelsea"),
			team("wy-2", "Arsenal"),
		}},
		{Provider: "sofa", Records: []Record{
			team("sofa-1", "Arsenal"),
			team("sofa-2", "Real Oviedo"),
		}},
	}

	table, err := engine.Synchronize(contents)
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range contents {
		seen := map[string]int{}
		for _, row := range table.Rows {
			if id, ok := row.ID(c.Provider); ok {
				seen[id]++
			}
		}
		for _, r := range c.Records {
			id, _ := recordID(r)
			if seen[id] != 1 {
				t.Errorf("provider %s id %s appears %d times, want exactly 1", c.Provider, id, seen[id])
			}
		}
		total := 0
		for _, n := range seen {
			total += n
		}
		if total != len(c.Records) {
			t.Errorf("provider %s occupies %d identifier slots, want %d", c.Provider, total, len(c.Records))
		}
	}
}

func TestSynchronize_SimilarityLinkCollapsesToOneRow(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}
	table, err := engine.Synchronize([]SyncableContent{
		{Provider: "opta", Records: []Record{team("opta-1", "Bayer 04 Leverkusen")}},
		{Provider: "wyscout", Records: []Record{team("wy-1", "Bayer Leverkusen")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
}

func TestSynchronize_NoContent(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}
	table, err := engine.Synchronize(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 0 {
		t.Errorf("got %d rows, want 0", len(table.Rows))
	}
}
