package sync

// playerSimilarityThreshold mirrors the team threshold: names below 75%
// token-cosine similarity are not trusted on their own.
const playerSimilarityThreshold = 0.75

// birthDateToleranceDays absorbs off-by-one birth dates caused by timezone
// shifts and manual entry.
const birthDateToleranceDays = 1

func playerStrategy() Strategy {
	return Strategy{
		Entity:          EntityPlayer,
		RequiredColumns: []string{ColObjectID, ColPlayerName, ColTeamID},
		ContextColumns:  nil,
		DedupColumns:    []string{ColJerseyNumber, ColTeamID, ColPlayerName},
		Stages: []Stage{
			{
				Name:      "name similarity x jersey x team",
				Predicate: playerNameJerseyPredicate,
			},
			{
				Name:      "birth date tolerance x name x team",
				Predicate: playerBirthDatePredicate,
			},
			{
				Name:      "name or nickname similarity x team",
				Predicate: playerNameOrNicknamePredicate,
			},
			{
				Name:      "naive containment x team",
				Predicate: playerContainmentPredicate,
			},
			{
				Name:      "unconstrained name or nickname x team",
				Predicate: playerUnconstrainedPredicate,
			},
		},
	}
}

// jerseyGate compares jersey numbers but lets the pair through when either
// side is null: the missing column drops out of the predicate instead of
// failing the candidate.
func jerseyGate(a, b Record) bool {
	ka, oka := fieldKey(a, ColJerseyNumber)
	kb, okb := fieldKey(b, ColJerseyNumber)
	if !oka || !okb {
		return true
	}
	return ka == kb
}

// bestNameCross returns the best token-cosine score across the four
// name/nickname cross combinations. Null fields contribute nothing.
func bestNameCross(a, b Record) float64 {
	var best float64
	for _, ca := range []string{ColPlayerName, ColPlayerNickname} {
		na, oka := a.Str(ca)
		if !oka {
			continue
		}
		for _, cb := range []string{ColPlayerName, ColPlayerNickname} {
			nb, okb := b.Str(cb)
			if !okb {
				continue
			}
			if s := TokenCosine(na, nb); s > best {
				best = s
			}
		}
	}
	return best
}

func playerNameJerseyPredicate(a, b Record) (float64, bool) {
	if !fieldsEqual(a, b, ColTeamID) || !jerseyGate(a, b) {
		return 0, false
	}
	na, oka := a.Str(ColPlayerName)
	nb, okb := b.Str(ColPlayerName)
	if !oka || !okb {
		return 0, false
	}
	score := TokenCosine(na, nb)
	return score, score >= playerSimilarityThreshold
}

// playerBirthDatePredicate pairs records whose birth dates are within one day
// of each other or equal after a day/month swap, backed by a similar name or
// nickname. A null birth date on either side drops the date gate.
func playerBirthDatePredicate(a, b Record) (float64, bool) {
	if !fieldsEqual(a, b, ColTeamID) {
		return 0, false
	}
	da, oka := a.Date(ColBirthDate)
	db, okb := b.Date(ColBirthDate)
	if oka && okb {
		if !DateWithin(da, db, birthDateToleranceDays) && !DateSwappedEqual(da, db) {
			return 0, false
		}
	}
	score := bestNameCross(a, b)
	return score, score >= playerSimilarityThreshold
}

func playerNameOrNicknamePredicate(a, b Record) (float64, bool) {
	if !fieldsEqual(a, b, ColTeamID) {
		return 0, false
	}
	score := bestNameCross(a, b)
	return score, score >= playerSimilarityThreshold
}

// playerContainmentPredicate is the last-resort token test: a normalized part
// of one record's name appearing inside the other's. Score carries the cosine
// value so the greedy pass still prefers closer names.
func playerContainmentPredicate(a, b Record) (float64, bool) {
	if !fieldsEqual(a, b, ColTeamID) {
		return 0, false
	}
	for _, ca := range []string{ColPlayerName, ColPlayerNickname} {
		na, oka := a.Str(ca)
		if !oka {
			continue
		}
		for _, cb := range []string{ColPlayerName, ColPlayerNickname} {
			nb, okb := b.Str(cb)
			if !okb {
				continue
			}
			if ContainsNormalized(na, nb) {
				return bestNameCross(a, b), true
			}
		}
	}
	return 0, false
}

func playerUnconstrainedPredicate(a, b Record) (float64, bool) {
	if !fieldsEqual(a, b, ColTeamID) {
		return 0, false
	}
	score := bestNameCross(a, b)
	return score, score > 0
}
