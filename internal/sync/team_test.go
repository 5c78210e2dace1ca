package sync

import "testing"

func team(id, name string) Record {
	return Record{ColObjectID: id, ColTeamName: name}
}

func TestTeamStrategy_ExactNormalizedName(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"identical", "Bayer Leverkusen", "Bayer Leverkusen", true},
		{"club suffix", "Liverpool FC", "Liverpool", true},
		{"club prefix", "FC Barcelona", "Barcelona", true},
		{"womens suffix", "Arsenal Women", "Arsenal", true},
		{"different clubs", "Arsenal", "Chelsea", false},
		{"extra token is not exact", "Bayer 04 Leverkusen", "Bayer Leverkusen", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := teamExactPredicate(team("a", tt.a), team("b", tt.b))
			if ok != tt.want {
				t.Errorf("teamExactPredicate(%q, %q) = %v, want %v", tt.a, tt.b, ok, tt.want)
			}
		})
	}
}

func TestTeamEngine_SimilarityLinksLeverkusenSpellings(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}

	table, err := engine.Synchronize([]SyncableContent{
		{Provider: "opta", Records: []Record{team("opta-7", "Bayer 04 Leverkusen")}},
		{Provider: "wyscout", Records: []Record{team("wy-3", "Bayer Leverkusen")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
	optaID, _ := table.Rows[0].ID("opta")
	wyID, _ := table.Rows[0].ID("wyscout")
	if optaID != "opta-7" || wyID != "wy-3" {
		t.Errorf("row ids = (%q, %q), want (opta-7, wy-3)", optaID, wyID)
	}
}

func TestTeamEngine_BestRemainingAssignsEveryCounterpart(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// "Bayern" vs "Bayern Munchen II" sits below 0.75 but shares a token, so
	// the unconstrained stage still assigns it.
	table, err := engine.Synchronize([]SyncableContent{
		{Provider: "opta", Records: []Record{team("opta-1", "Bayern")}},
		{Provider: "wyscout", Records: []Record{team("wy-1", "Bayern Munchen II")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
	if _, ok := table.Rows[0].ID("opta"); !ok {
		t.Error("opta id missing from linked row")
	}
	if _, ok := table.Rows[0].ID("wyscout"); !ok {
		t.Error("wyscout id missing from linked row")
	}
}

func TestTeamEngine_OneToOneAssignmentIgnoresInputOrder(t *testing.T) {
	engine, err := NewEngine(EntityTeam, Options{})
	if err != nil {
		t.Fatal(err)
	}

	table, err := engine.Synchronize([]SyncableContent{
		{Provider: "opta", Records: []Record{
			team("opta-a", "Manchester United"),
			team("opta-b", "Manchester City"),
		}},
		{Provider: "wyscout", Records: []Record{
			team("wy-a", "Manchester City FC"),
			team("wy-b", "Manchester United FC"),
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}

	links := map[string]string{}
	for _, row := range table.Rows {
		o, _ := row.ID("opta")
		w, _ := row.ID("wyscout")
		links[o] = w
	}
	if links["opta-a"] != "wy-b" {
		t.Errorf("Manchester United linked to %q, want wy-b", links["opta-a"])
	}
	if links["opta-b"] != "wy-a" {
		t.Errorf("Manchester City linked to %q, want wy-a", links["opta-b"])
	}
}
