package grading

import (
	"testing"

	"quizbank/internal/bank"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in   string
		want Locale
	}{
		{in: "ko", want: LocaleKorean},
		{in: "en", want: LocaleEnglish},
		{in: " EN ", want: LocaleEnglish},
		{in: "", want: LocaleKorean},
		{in: "fr", want: LocaleKorean},
	}
	for _, tc := range tests {
		if got := ParseLocale(tc.in); got != tc.want {
			t.Fatalf("ParseLocale(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuestionTextFallback(t *testing.T) {
	q := &bank.Question{Text: "수도는 어디인가?", TextEn: "What is the capital?"}
	if got := QuestionText(q, LocaleEnglish); got != "What is the capital?" {
		t.Fatalf("expected english text, got %q", got)
	}
	if got := QuestionText(q, LocaleKorean); got != "수도는 어디인가?" {
		t.Fatalf("expected korean text, got %q", got)
	}

	q.TextEn = "   "
	if got := QuestionText(q, LocaleEnglish); got != "수도는 어디인가?" {
		t.Fatalf("expected fallback to korean for blank english, got %q", got)
	}
}

func TestOptionText(t *testing.T) {
	q := &bank.Question{
		Type:      bank.TypeMultipleChoice,
		Options:   []string{"서울", "부산", "대구"},
		OptionsEn: []string{"Seoul", "", "Daegu"},
	}

	tests := []struct {
		name  string
		index int
		loc   Locale
		want  string
	}{
		{name: "korean", index: 0, loc: LocaleKorean, want: "서울"},
		{name: "english", index: 0, loc: LocaleEnglish, want: "Seoul"},
		{name: "blank english falls back", index: 1, loc: LocaleEnglish, want: "부산"},
		{name: "negative index", index: -1, loc: LocaleKorean, want: ""},
		{name: "out of range", index: 3, loc: LocaleEnglish, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := OptionText(q, tc.index, tc.loc); got != tc.want {
				t.Fatalf("OptionText(%d, %q) = %q, want %q", tc.index, tc.loc, got, tc.want)
			}
		})
	}
}

func TestCanonicalAnswerFreeText(t *testing.T) {
	tests := []struct {
		name string
		q    bank.Question
		loc  Locale
		want string
	}{
		{
			name: "korean primary",
			q:    bank.Question{Type: bank.TypeFreeText, Answer: "서울", AnswerEn: "Seoul"},
			loc:  LocaleKorean,
			want: "서울",
		},
		{
			name: "english primary",
			q:    bank.Question{Type: bank.TypeFreeText, Answer: "서울", AnswerEn: "Seoul"},
			loc:  LocaleEnglish,
			want: "Seoul",
		},
		{
			name: "english falls back to korean",
			q:    bank.Question{Type: bank.TypeFreeText, Answer: "서울"},
			loc:  LocaleEnglish,
			want: "서울",
		},
		{
			name: "korean falls back to english",
			q:    bank.Question{Type: bank.TypeFreeText, AnswerEn: "Seoul"},
			loc:  LocaleKorean,
			want: "Seoul",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalAnswer(&tc.q, tc.loc); got != tc.want {
				t.Fatalf("CanonicalAnswer = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCanonicalAnswerMultipleChoice(t *testing.T) {
	q := &bank.Question{
		Type:        bank.TypeMultipleChoice,
		Options:     []string{"서울", "부산"},
		OptionsEn:   []string{"Seoul", "Busan"},
		AnswerIndex: 1,
	}
	if got := CanonicalAnswer(q, LocaleEnglish); got != "Busan" {
		t.Fatalf("expected Busan, got %q", got)
	}
	if got := CanonicalAnswer(q, LocaleKorean); got != "부산" {
		t.Fatalf("expected 부산, got %q", got)
	}
}
