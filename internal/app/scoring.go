package app

import (
	"sort"

	"estimation-quiz-service/internal/domain"
)

// pointsByRank are awarded to the first distinct non-exceeding answers.
var pointsByRank = []int{5, 3, 1}

// displayLimit caps the answer lists shown with a round result.
const displayLimit = 5

// scoredRound is the pure outcome of ranking one question's submissions.
type scoredRound struct {
	nonExceeding []domain.Submission
	exceeding    []domain.Submission
	points       map[string]int
	winners      []string
}

// scoreRound partitions submissions around target and ranks the side at or
// below it by distinct value. Answers above the target never score.
// Ties keep submission order.
func scoreRound(target float64, submissions []domain.Submission) scoredRound {
	result := scoredRound{
		nonExceeding: []domain.Submission{},
		exceeding:    []domain.Submission{},
		points:       map[string]int{},
		winners:      []string{},
	}
	for _, sub := range submissions {
		if sub.Answer <= target {
			result.nonExceeding = append(result.nonExceeding, sub)
		} else {
			result.exceeding = append(result.exceeding, sub)
		}
	}

	sort.SliceStable(result.nonExceeding, func(i, j int) bool {
		return result.nonExceeding[i].Answer > result.nonExceeding[j].Answer
	})
	sort.SliceStable(result.exceeding, func(i, j int) bool {
		return result.exceeding[i].Answer < result.exceeding[j].Answer
	})

	rank := 0
	for i, entry := range result.nonExceeding {
		if i == 0 || entry.Answer != result.nonExceeding[i-1].Answer {
			rank++
		}
		if rank > len(pointsByRank) {
			break
		}
		result.points[entry.ParticipantID] = pointsByRank[rank-1]
		if rank == 1 {
			result.winners = append(result.winners, entry.DisplayName)
		}
	}
	return result
}

func displayAnswers(entries []domain.Submission) []domain.RankedAnswer {
	n := len(entries)
	if n > displayLimit {
		n = displayLimit
	}
	out := make([]domain.RankedAnswer, 0, n)
	for _, entry := range entries[:n] {
		out = append(out, domain.RankedAnswer{Name: entry.DisplayName, Answer: entry.Answer})
	}
	return out
}
