package lead

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityHashStable(t *testing.T) {
	t.Parallel()

	r := Review{
		CompanyName:  "Acme Corp",
		ReviewerName: "Jane Smith",
		Body:         "The sync with our payroll api breaks every month.",
		SourceURL:    "https://www.g2.com/products/example/reviews",
	}

	h := IdentityHash(r)
	require.Len(t, h, 32)
	require.Equal(t, h, IdentityHash(r))

	// Fields outside the identity do not change the key.
	r.Title = "Different title"
	r.Rating = ptr(1.0)
	r.Score = 90
	require.Equal(t, h, IdentityHash(r))
}

func TestIdentityHashSensitivity(t *testing.T) {
	t.Parallel()

	base := Review{
		CompanyName:  "Acme Corp",
		ReviewerName: "Jane Smith",
		Body:         "Too slow.",
		SourceURL:    "https://example.com/reviews",
	}

	mutations := map[string]func(*Review){
		"reviewer": func(r *Review) { r.ReviewerName = "John Smith" },
		"company":  func(r *Review) { r.CompanyName = "Other Inc" },
		"body":     func(r *Review) { r.Body = "Too buggy." },
		"source":   func(r *Review) { r.SourceURL = "https://example.org/reviews" },
	}

	for name, mutate := range mutations {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := base
			mutate(&r)
			require.NotEqual(t, IdentityHash(base), IdentityHash(r))
		})
	}
}

func TestIdentityHashBodyPrefixOnly(t *testing.T) {
	t.Parallel()

	prefix := strings.Repeat("x", 200)
	a := Review{ReviewerName: "A", CompanyName: "B", Body: prefix + "tail one", SourceURL: "u"}
	b := Review{ReviewerName: "A", CompanyName: "B", Body: prefix + "entirely different tail", SourceURL: "u"}

	require.Equal(t, IdentityHash(a), IdentityHash(b))
}

func TestFinalize(t *testing.T) {
	t.Parallel()

	r := Review{
		CompanyName:  "Acme Corp",
		ReviewerName: "Jane Smith",
		Body:         "Support never answers.",
		Rating:       ptr(1.5),
		PainTags:     []string{"support"},
	}
	Finalize(&r)

	require.Equal(t, StatusNew, r.Status)
	require.NotEmpty(t, r.IdentityHash)
	require.Equal(t, 55.0, r.Score) // 25 rating + 20 one tag + 5 + 5 names

	r.Status = StatusContacted
	Finalize(&r)
	require.Equal(t, StatusContacted, r.Status)
}
