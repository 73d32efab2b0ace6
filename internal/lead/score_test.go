package lead

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		r    Review
		want float64
	}{
		{
			name: "empty anonymous review",
			r:    Review{CompanyName: "Unknown", ReviewerName: "Unknown"},
			want: 0,
		},
		{
			name: "rating two with support and complexity pains",
			r: Review{
				CompanyName:  "Unknown",
				ReviewerName: "Unknown",
				Body:         "Support response time was terrible and the UI is too complex to learn",
				Rating:       ptr(2.0),
				PainTags:     []string{"complexity", "support"},
			},
			want: 62, // 25 rating + 30 two tags + 7 complexity
		},
		{
			name: "rating buckets are inclusive",
			r:    Review{CompanyName: "Unknown", ReviewerName: "Unknown", Rating: ptr(2.5)},
			want: 20,
		},
		{
			name: "positive rating still earns base points",
			r:    Review{CompanyName: "Unknown", ReviewerName: "Unknown", Rating: ptr(4.0)},
			want: 5,
		},
		{
			name: "single low-value tag",
			r:    Review{CompanyName: "Unknown", ReviewerName: "Unknown", PainTags: []string{"cost"}},
			want: 20,
		},
		{
			name: "single high-value tag",
			r:    Review{CompanyName: "Unknown", ReviewerName: "Unknown", PainTags: []string{"bugs"}},
			want: 27,
		},
		{
			name: "medium body bonus",
			r: Review{
				CompanyName:  "Unknown",
				ReviewerName: "Unknown",
				Body:         strings.Repeat("a", 151),
			},
			want: 5,
		},
		{
			name: "long body bonus",
			r: Review{
				CompanyName:  "Unknown",
				ReviewerName: "Unknown",
				Body:         strings.Repeat("a", 301),
			},
			want: 10,
		},
		{
			name: "body bonus counts characters not bytes",
			r: Review{
				CompanyName:  "Unknown",
				ReviewerName: "Unknown",
				// 160 characters but 320 bytes; still the medium bonus.
				Body: strings.Repeat("é", 160),
			},
			want: 5,
		},
		{
			name: "named company and reviewer",
			r:    Review{CompanyName: "Acme Corp", ReviewerName: "Jane Smith"},
			want: 10,
		},
		{
			name: "placeholder names earn nothing",
			r:    Review{CompanyName: "N/A", ReviewerName: ""},
			want: 0,
		},
		{
			name: "capped at 100",
			r: Review{
				CompanyName:  "Acme Corp",
				ReviewerName: "Jane Smith",
				Body:         strings.Repeat("slow and buggy and complex. ", 15),
				Rating:       ptr(1.0),
				PainTags:     []string{"complexity", "bugs", "performance"},
			},
			// 30 + 40 + 21 + 10 + 5 + 5 = 111, clamped
			want: 100,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Score(tt.r))
		})
	}
}

func TestScoreMonotonicInTagCount(t *testing.T) {
	t.Parallel()

	base := Review{CompanyName: "Unknown", ReviewerName: "Unknown"}

	one := base
	one.PainTags = []string{"cost"}
	two := base
	two.PainTags = []string{"cost", "support"}
	three := base
	three.PainTags = []string{"cost", "support", "integration"}

	require.Less(t, Score(base), Score(one))
	require.Less(t, Score(one), Score(two))
	require.Less(t, Score(two), Score(three))
}
