package models

import (
	"testing"
	"time"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{
			name: "full name present",
			user: User{Email: "maria@example.com", FullName: "Maria Lopez"},
			want: "Maria Lopez",
		},
		{
			name: "falls back to email",
			user: User{Email: "maria@example.com"},
			want: "maria@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionIsExpired(t *testing.T) {
	expired := Session{ExpiresAt: time.Now().Add(-time.Minute)}
	if !expired.IsExpired() {
		t.Error("expected past session to be expired")
	}

	active := Session{ExpiresAt: time.Now().Add(time.Hour)}
	if active.IsExpired() {
		t.Error("expected future session to be active")
	}
}

func TestScoreHelpersReturnNilWhenAbsent(t *testing.T) {
	var result EvaluationResult

	if result.GrammarScore() != nil {
		t.Error("expected nil grammar score")
	}
	if result.VocabularyScore() != nil {
		t.Error("expected nil vocabulary score")
	}
	if result.FluencyScore() != nil {
		t.Error("expected nil fluency score")
	}

	score := 85
	result.Grammar = &GrammarFeedback{Score: &score}
	if got := result.GrammarScore(); got == nil || *got != 85 {
		t.Error("expected grammar score 85")
	}
}
