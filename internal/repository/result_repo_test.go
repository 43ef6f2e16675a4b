package repository

import "testing"

func TestStorageScore(t *testing.T) {
	seventyEight := 78

	tests := []struct {
		name  string
		score *int
		want  int
	}{
		{
			name:  "present score",
			score: &seventyEight,
			want:  78,
		},
		{
			name:  "missing score defaults to zero",
			score: nil,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storageScore(tt.score); got != tt.want {
				t.Errorf("storageScore() = %d, want %d", got, tt.want)
			}
		})
	}
}
