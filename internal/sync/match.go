package sync

// dateOffsets is the tolerance window for match dates, ordered so smaller
// shifts win when several offsets would pair the same records. Zero is the
// exact-key stage and is not retried here.
var dateOffsets = []int{-1, 1, -2, 2, -3, 3}

func matchStrategy() Strategy {
	return Strategy{
		Entity:          EntityMatch,
		RequiredColumns: []string{ColObjectID, ColMatchDate, ColHomeTeamID, ColAwayTeamID},
		ContextColumns:  []string{ColCompetitionID, ColSeasonID},
		DedupColumns:    []string{ColMatchDate, ColHomeTeamID, ColAwayTeamID},
		Stages: []Stage{
			{
				Name:      "exact date x teams",
				Exact:     true,
				Predicate: matchExactPredicate,
			},
			{
				Name:      "date tolerance x teams",
				Predicate: matchDateTolerancePredicate,
			},
			{
				Name:      "matchday x teams",
				Exact:     true,
				Predicate: matchMatchdayPredicate,
			},
		},
	}
}

func sameFixtureTeams(a, b Record) bool {
	return fieldsEqual(a, b, ColHomeTeamID) && fieldsEqual(a, b, ColAwayTeamID)
}

func matchExactPredicate(a, b Record) (float64, bool) {
	if !sameFixtureTeams(a, b) {
		return 0, false
	}
	da, oka := a.Date(ColMatchDate)
	db, okb := b.Date(ColMatchDate)
	if !oka || !okb || dayDiff(da, db) != 0 {
		return 0, false
	}
	return 1, true
}

// matchDateTolerancePredicate accepts fixtures whose dates differ by up to
// three days in either direction (timezones, TV scheduling). Smaller shifts
// score higher so the greedy pass prefers them.
func matchDateTolerancePredicate(a, b Record) (float64, bool) {
	if !sameFixtureTeams(a, b) {
		return 0, false
	}
	da, oka := a.Date(ColMatchDate)
	db, okb := b.Date(ColMatchDate)
	if !oka || !okb {
		return 0, false
	}
	diff := dayDiff(da, db)
	for _, d := range dateOffsets {
		if diff == d {
			abs := d
			if abs < 0 {
				abs = -abs
			}
			return 1 - float64(abs)/10, true
		}
	}
	return 0, false
}

// matchMatchdayPredicate covers postponements beyond the tolerance window by
// falling back to the round number. Only fires when both sides report one.
func matchMatchdayPredicate(a, b Record) (float64, bool) {
	if !sameFixtureTeams(a, b) {
		return 0, false
	}
	if !fieldsEqual(a, b, ColMatchday) {
		return 0, false
	}
	return 1, true
}
