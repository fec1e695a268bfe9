package session

import (
	"math/rand"
	"testing"

	"quizbank/internal/bank"
)

func questionSet(n int) []bank.Question {
	out := make([]bank.Question, n)
	for i := range out {
		out[i] = bank.Question{
			ID:          int64(i + 1),
			Type:        bank.TypeMultipleChoice,
			Text:        "q",
			Options:     []string{"a", "b", "c", "d"},
			AnswerIndex: i % 4,
		}
	}
	return out
}

func TestShuffleQuestionsIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	in := questionSet(20)

	out := ShuffleQuestions(rng, in)
	if len(out) != len(in) {
		t.Fatalf("shuffle changed length: %d != %d", len(out), len(in))
	}

	seen := map[int64]bool{}
	for _, q := range out {
		if seen[q.ID] {
			t.Fatalf("question %d appears twice", q.ID)
		}
		seen[q.ID] = true
	}
	for _, q := range in {
		if !seen[q.ID] {
			t.Fatalf("question %d missing after shuffle", q.ID)
		}
	}
}

func TestShuffleQuestionsDoesNotMutateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	in := questionSet(10)
	_ = ShuffleQuestions(rng, in)
	for i, q := range in {
		if q.ID != int64(i+1) {
			t.Fatalf("input slice was reordered at %d", i)
		}
	}
}

func TestSampleQuestions(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	in := questionSet(10)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "less than available", limit: 4, want: 4},
		{name: "equal to available", limit: 10, want: 10},
		{name: "more than available", limit: 50, want: 10},
		{name: "zero takes all", limit: 0, want: 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := SampleQuestions(rng, in, tc.limit)
			if len(out) != tc.want {
				t.Fatalf("sample size = %d, want %d", len(out), tc.want)
			}
			seen := map[int64]bool{}
			for _, q := range out {
				if seen[q.ID] {
					t.Fatalf("question %d drawn twice", q.ID)
				}
				seen[q.ID] = true
			}
		})
	}
}

func TestShuffleOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	q := &bank.Question{
		Type:        bank.TypeMultipleChoice,
		Options:     []string{"a", "b", "c", "d", "e"},
		AnswerIndex: 2,
	}

	order := ShuffleOptions(rng, q)
	if len(order) != 5 {
		t.Fatalf("order length = %d, want 5", len(order))
	}

	seen := map[int]bool{}
	correct := 0
	for _, slot := range order {
		if seen[slot.OriginalIndex] {
			t.Fatalf("original index %d appears twice", slot.OriginalIndex)
		}
		seen[slot.OriginalIndex] = true
		if slot.IsCorrect {
			correct++
			if slot.OriginalIndex != q.AnswerIndex {
				t.Fatalf("correct flag on wrong original index %d", slot.OriginalIndex)
			}
		}
	}
	if correct != 1 {
		t.Fatalf("expected exactly one correct slot, got %d", correct)
	}
}

func TestShuffleOptionsFreeText(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	q := &bank.Question{Type: bank.TypeFreeText, Answer: "x"}
	if order := ShuffleOptions(rng, q); order != nil {
		t.Fatalf("free-text question must have nil order, got %v", order)
	}
}
