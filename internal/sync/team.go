package sync

// teamSimilarityThreshold is the minimum token-cosine score for the primary
// fuzzy name stage, per the 75% rule used across entity types.
const teamSimilarityThreshold = 0.75

func teamStrategy() Strategy {
	return Strategy{
		Entity:          EntityTeam,
		RequiredColumns: []string{ColObjectID, ColTeamName},
		ContextColumns:  []string{ColCompetitionID, ColSeasonID},
		DedupColumns:    []string{ColTeamName},
		Stages: []Stage{
			{
				Name:      "exact normalized name",
				Exact:     true,
				Predicate: teamExactPredicate,
			},
			{
				Name:      "name similarity >= 0.75",
				Predicate: teamSimilarityPredicate,
			},
			{
				Name:      "name similarity, best remaining",
				Predicate: teamBestRemainingPredicate,
			},
		},
	}
}

func teamExactPredicate(a, b Record) (float64, bool) {
	na, oka := a.Str(ColTeamName)
	nb, okb := b.Str(ColTeamName)
	if !oka || !okb {
		return 0, false
	}
	ka := NormalizeTeamName(na)
	if ka == "" || ka != NormalizeTeamName(nb) {
		return 0, false
	}
	return 1, true
}

func teamSimilarityPredicate(a, b Record) (float64, bool) {
	score := teamNameCosine(a, b)
	return score, score >= teamSimilarityThreshold
}

// teamBestRemainingPredicate assigns whatever counterparts remain, best score
// first, with no minimum. Zero similarity is no pairing at all: two names
// that share nothing are left for the residual pass.
func teamBestRemainingPredicate(a, b Record) (float64, bool) {
	score := teamNameCosine(a, b)
	return score, score > 0
}

func teamNameCosine(a, b Record) float64 {
	na, oka := a.Str(ColTeamName)
	nb, okb := b.Str(ColTeamName)
	if !oka || !okb {
		return 0
	}
	return TokenCosine(na, nb)
}
