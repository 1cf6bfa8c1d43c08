package predictor

// fixture builds a record whose home statistics are h and away statistics a,
// each listed in StatKind order (shots, on target, corners, fouls, yellows, reds).
func fixture(home, away string, result Result, h, a [NumStatKinds]float64) *MatchRecord {
	return &MatchRecord{HomeTeam: home, AwayTeam: away, Result: result, Home: h, Away: a}
}

// twoMatchCorpus is Arsenal v Chelsea then Chelsea v Arsenal.
func twoMatchCorpus() []*MatchRecord {
	return []*MatchRecord{
		fixture("Arsenal", "Chelsea", HomeWin,
			[NumStatKinds]float64{15, 6, 7, 10, 1, 0},
			[NumStatKinds]float64{8, 3, 4, 12, 2, 0}),
		fixture("Chelsea", "Arsenal", Draw,
			[NumStatKinds]float64{10, 4, 5, 11, 2, 0},
			[NumStatKinds]float64{12, 5, 6, 9, 1, 1}),
	}
}
