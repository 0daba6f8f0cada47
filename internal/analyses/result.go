package analyses

// Result is the validated analysis returned by the backend.
type Result struct {
	ATSScore        float64  `json:"atsScore"`
	MatchedKeywords []string `json:"matchedKeywords"`
	MissingKeywords []string `json:"missingKeywords"`
	Tips            []string `json:"tips"`
	Insights        Insights `json:"insights"`
	GeneratedResume string   `json:"generatedResume"`
}

// Insights groups the qualitative feedback. Missing lists decode as empty.
type Insights struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// wireResult mirrors the backend reply, which may name the tailored résumé
// either generatedResume or optimizedResume.
type wireResult struct {
	ATSScore        float64      `json:"atsScore"`
	MatchedKeywords []string     `json:"matchedKeywords"`
	MissingKeywords []string     `json:"missingKeywords"`
	Tips            []string     `json:"tips"`
	Insights        wireInsights `json:"insights"`
	GeneratedResume *string      `json:"generatedResume"`
	OptimizedResume *string      `json:"optimizedResume"`
}

type wireInsights struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

func (w wireResult) toResult() Result {
	res := Result{
		ATSScore:        clampScore(w.ATSScore),
		MatchedKeywords: orEmpty(w.MatchedKeywords),
		MissingKeywords: orEmpty(w.MissingKeywords),
		Tips:            orEmpty(w.Tips),
		Insights: Insights{
			Strengths:       orEmpty(w.Insights.Strengths),
			Weaknesses:      orEmpty(w.Insights.Weaknesses),
			Recommendations: orEmpty(w.Insights.Recommendations),
		},
	}
	switch {
	case w.GeneratedResume != nil && *w.GeneratedResume != "":
		res.GeneratedResume = *w.GeneratedResume
	case w.OptimizedResume != nil:
		res.GeneratedResume = *w.OptimizedResume
	}
	return res
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
