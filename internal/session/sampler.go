package session

import (
	"math/rand"

	"quizbank/internal/bank"
	"quizbank/internal/grading"
)

// ShuffleQuestions returns a uniformly shuffled copy. The input slice
// is never mutated so the bank's ordering stays stable across sessions.
func ShuffleQuestions(rng *rand.Rand, in []bank.Question) []bank.Question {
	out := make([]bank.Question, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// SampleQuestions draws up to limit questions without replacement.
// A limit at or above len(in) degrades to a full shuffle.
func SampleQuestions(rng *rand.Rand, in []bank.Question, limit int) []bank.Question {
	out := ShuffleQuestions(rng, in)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// ShuffleOptions freezes a random presentation order for one
// multiple-choice question. Free-text questions have no options and
// yield nil.
func ShuffleOptions(rng *rand.Rand, q *bank.Question) []grading.OptionOrder {
	if q.Type != bank.TypeMultipleChoice {
		return nil
	}
	order := make([]grading.OptionOrder, len(q.Options))
	for i := range order {
		order[i] = grading.OptionOrder{
			OriginalIndex: i,
			IsCorrect:     i == q.AnswerIndex,
		}
	}
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}
