// Package scoring turns quiz answers into a percentage score and a
// participant profile.
package scoring

import "math"

// Profile is the tier a participant lands in after the self-assessment quiz.
type Profile struct {
	Label   string `json:"label"`
	Message string `json:"message"`
	Color   string `json:"color"`
}

var (
	Curious = Profile{
		Label:   "Curieux",
		Message: "Vous découvrez la RSE. Ce module est fait pour vous.",
		Color:   "blue",
	}
	Beginner = Profile{
		Label:   "Engagé débutant",
		Message: "Vous avez déjà des pratiques responsables. Il est temps de les structurer.",
		Color:   "green",
	}
	Unaware = Profile{
		Label:   "RSE sans le savoir",
		Message: "Votre entreprise agit déjà de manière responsable. Il faut maintenant valoriser ces actions.",
		Color:   "purple",
	}
)

// Score returns round(100*yes/total) clamped to [0, 100].
func Score(yes, total int) int {
	if total <= 0 {
		return 0
	}
	s := int(math.Round(100 * float64(yes) / float64(total)))
	return max(0, min(100, s))
}

// ProfileFor maps a yes count to a profile: 0–1 curious, 2–3 beginner,
// 4 and above unaware.
func ProfileFor(yes int) Profile {
	switch {
	case yes >= 4:
		return Unaware
	case yes >= 2:
		return Beginner
	default:
		return Curious
	}
}

// YesCountFromScore recovers the yes count from a stored percentage.
func YesCountFromScore(score, questions int) int {
	return int(math.Round(float64(score) / 100 * float64(questions)))
}

// ProfileFromScore is ProfileFor applied to a stored percentage, for rows
// that only persist the score.
func ProfileFromScore(score, questions int) Profile {
	return ProfileFor(YesCountFromScore(score, questions))
}

// YesCount counts the "yes" answers in a question id → value map.
func YesCount(answers map[string]string) int {
	n := 0
	for _, v := range answers {
		if v == "yes" {
			n++
		}
	}
	return n
}

// Result is the outcome of a completed module.
type Result struct {
	Score          int     `json:"score"`
	YesCount       int     `json:"yesCount"`
	TotalQuestions int     `json:"totalQuestions"`
	Profile        Profile `json:"profile"`
}

// Compute scores a set of quiz answers against the number of questions.
func Compute(answers map[string]string, totalQuestions int) Result {
	yes := YesCount(answers)
	return Result{
		Score:          Score(yes, totalQuestions),
		YesCount:       yes,
		TotalQuestions: totalQuestions,
		Profile:        ProfileFor(yes),
	}
}
