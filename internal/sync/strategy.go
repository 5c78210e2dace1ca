package sync

import "sort"

// Candidate is a proposed pairing found during one stage. Indices point into
// the stage's unmatched pools; exact-key stages always score 1.0.
type Candidate struct {
	LeftIndex  int
	RightIndex int
	Score      float64
	Stage      int
}

// Stage is one ordered matching attempt within a strategy. The predicate is
// evaluated over the Cartesian product of the current unmatched pools; a true
// result proposes the pair with the given score in [0, 1].
type Stage struct {
	Name      string
	Exact     bool
	Predicate func(a, b Record) (float64, bool)
}

// Strategy is the ordered stage list for one entity type, plus the column
// sets the engine needs for validation, context partitioning and dedup.
type Strategy struct {
	Entity          EntityType
	RequiredColumns []string
	ContextColumns  []string
	DedupColumns    []string
	Stages          []Stage
}

func strategyFor(entity EntityType) (Strategy, bool) {
	switch entity {
	case EntityMatch:
		return matchStrategy(), true
	case EntityTeam:
		return teamStrategy(), true
	case EntityPlayer:
		return playerStrategy(), true
	}
	return Strategy{}, false
}

// runStage generates candidates for one stage over the current pools and
// commits them greedily by descending score. Ties break by ascending left
// index, then right index. Returns committed pairs and the reduced pools.
func runStage(stageIdx int, stage Stage, left, right []Record, leftIdx, rightIdx []int) (committed []Candidate, remainingLeft, remainingRight []int) {
	var candidates []Candidate
	for li, i := range leftIdx {
		for ri, j := range rightIdx {
			score, ok := stage.Predicate(left[i], right[j])
			if !ok {
				continue
			}
			candidates = append(candidates, Candidate{LeftIndex: li, RightIndex: ri, Score: score, Stage: stageIdx})
		}
	}

	if !stage.Exact {
		sort.SliceStable(candidates, func(a, b int) bool {
			if candidates[a].Score != candidates[b].Score {
				return candidates[a].Score > candidates[b].Score
			}
			if candidates[a].LeftIndex != candidates[b].LeftIndex {
				return candidates[a].LeftIndex < candidates[b].LeftIndex
			}
			return candidates[a].RightIndex < candidates[b].RightIndex
		})
	}

	usedLeft := make(map[int]bool)
	usedRight := make(map[int]bool)
	for _, c := range candidates {
		if usedLeft[c.LeftIndex] || usedRight[c.RightIndex] {
			continue
		}
		usedLeft[c.LeftIndex] = true
		usedRight[c.RightIndex] = true
		// Re-point pool positions at the underlying record indices before
		// handing the commit back.
		committed = append(committed, Candidate{
			LeftIndex:  leftIdx[c.LeftIndex],
			RightIndex: rightIdx[c.RightIndex],
			Score:      c.Score,
			Stage:      c.Stage,
		})
	}

	for li, i := range leftIdx {
		if !usedLeft[li] {
			remainingLeft = append(remainingLeft, i)
		}
	}
	for ri, j := range rightIdx {
		if !usedRight[ri] {
			remainingRight = append(remainingRight, j)
		}
	}
	return committed, remainingLeft, remainingRight
}

// stageTrace reports one stage's outcome to the verbose log. Nil disables
// tracing; outcomes never depend on it.
type stageTrace func(stage Stage, committed, poolLeft, poolRight int)

// runStages walks the full stage sequence over a provider pair. Later stages
// only ever see records the earlier stages left unmatched.
func runStages(stages []Stage, left, right []Record, trace stageTrace) []Candidate {
	leftIdx := make([]int, len(left))
	for i := range left {
		leftIdx[i] = i
	}
	rightIdx := make([]int, len(right))
	for j := range right {
		rightIdx[j] = j
	}

	var all []Candidate
	for si, stage := range stages {
		if len(leftIdx) == 0 || len(rightIdx) == 0 {
			break
		}
		var committed []Candidate
		committed, leftIdx, rightIdx = runStage(si, stage, left, right, leftIdx, rightIdx)
		all = append(all, committed...)
		if trace != nil {
			trace(stage, len(committed), len(leftIdx), len(rightIdx))
		}
	}
	return all
}
