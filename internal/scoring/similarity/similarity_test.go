// internal/scoring/similarity/similarity_test.go
package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leadgen-workers/internal/models"
)

func TestFieldScore(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{
			name:     "exact match ignoring case and space",
			a:        "  Technology ",
			b:        "technology",
			expected: 1.0,
		},
		{
			name:     "substring match",
			a:        "北京市",
			b:        "北京",
			expected: 0.8,
		},
		{
			name:     "substring match reversed",
			a:        "software",
			b:        "enterprise software",
			expected: 0.8,
		},
		{
			name:     "no overlap",
			a:        "finance",
			b:        "healthcare",
			expected: 0.0,
		},
		{
			name:     "empty side scores zero",
			a:        "",
			b:        "technology",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FieldScore(tt.a, tt.b))
		})
	}
}

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name     string
		textA    string
		textB    string
		expected float64
	}{
		{
			name:     "identical descriptions",
			textA:    "cloud automation platform",
			textB:    "cloud automation platform",
			expected: 1.0,
		},
		{
			name:     "partial overlap divided by larger set",
			textA:    "cloud automation platform",
			textB:    "cloud analytics platform vendor",
			expected: 0.5,
		},
		{
			name:     "short tokens ignored",
			textA:    "the a an ai",
			textB:    "the a an ai",
			expected: 0.0,
		},
		{
			name:     "empty text scores zero",
			textA:    "",
			textB:    "cloud automation platform",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, KeywordScore(tt.textA, tt.textB), 0.0001)
		})
	}
}

func TestWebsiteScore(t *testing.T) {
	tests := []struct {
		name     string
		urlA     string
		urlB     string
		expected float64
	}{
		{
			name:     "same host with scheme and www stripped",
			urlA:     "https://www.example.com",
			urlB:     "example.com",
			expected: 1.0,
		},
		{
			name:     "same base domain different subdomain",
			urlA:     "https://shop.example.com",
			urlB:     "https://blog.example.com",
			expected: 0.8,
		},
		{
			name:     "unrelated domains",
			urlA:     "https://example.com",
			urlB:     "https://other.org",
			expected: 0.0,
		},
		{
			name:     "unparsable input",
			urlA:     "http://[broken",
			urlB:     "example.com",
			expected: 0.0,
		},
		{
			name:     "empty input",
			urlA:     "",
			urlB:     "example.com",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WebsiteScore(tt.urlA, tt.urlB))
		})
	}
}

func TestCombineMatchesWeights(t *testing.T) {
	factors := models.SimilarityFactors{
		IndustryMatch: 1.0,
		LocationMatch: 1.0,
		SizeMatch:     1.0,
		KeywordMatch:  1.0,
		WebsiteMatch:  1.0,
	}
	assert.InDelta(t, 1.0, Combine(factors), 0.0001)

	partial := models.SimilarityFactors{IndustryMatch: 1.0}
	assert.InDelta(t, 0.30, Combine(partial), 0.0001)
}

func TestFindSimilar(t *testing.T) {
	target := models.Lead{
		ID:          "lead-1",
		CompanyName: "Acme Cloud",
		Industry:    "technology",
		Location:    "北京",
		CompanySize: "11-50人",
		Description: "cloud automation platform for sales teams",
		Website:     "https://acme.example.com",
	}

	twin := models.Lead{
		ID:          "lead-2",
		CompanyName: "Acme Twin",
		Industry:    "technology",
		Location:    "北京",
		CompanySize: "11-50人",
		Description: "cloud automation platform for sales teams",
		Website:     "https://twin.example.com",
	}
	related := models.Lead{
		ID:          "lead-3",
		CompanyName: "Acme Related",
		Industry:    "technology",
		Location:    "上海",
		CompanySize: "51-200人",
		Description: "cloud automation tooling",
	}
	unrelated := models.Lead{
		ID:          "lead-4",
		CompanyName: "Steel Works",
		Industry:    "制造",
		Location:    "成都",
		CompanySize: "500人以上",
		Description: "heavy machinery",
	}

	t.Run("ranks by similarity and drops weak candidates", func(t *testing.T) {
		results := FindSimilar(target, []models.Lead{unrelated, related, twin}, 0)

		assert.Len(t, results, 2)
		assert.Equal(t, "lead-2", results[0].Lead.ID)
		assert.Equal(t, "lead-3", results[1].Lead.ID)
		assert.Greater(t, results[0].Similarity, results[1].Similarity)
	})

	t.Run("excludes the target itself", func(t *testing.T) {
		results := FindSimilar(target, []models.Lead{target, twin}, 0)

		assert.Len(t, results, 1)
		assert.Equal(t, "lead-2", results[0].Lead.ID)
	})

	t.Run("respects max results", func(t *testing.T) {
		pool := make([]models.Lead, 0, 8)
		for i := 0; i < 8; i++ {
			clone := twin
			clone.ID = "clone-" + string(rune('a'+i))
			pool = append(pool, clone)
		}

		results := FindSimilar(target, pool, 3)
		assert.Len(t, results, 3)
	})

	t.Run("default cap applies when max is zero", func(t *testing.T) {
		pool := make([]models.Lead, 0, 8)
		for i := 0; i < 8; i++ {
			clone := twin
			clone.ID = "clone-" + string(rune('a'+i))
			pool = append(pool, clone)
		}

		results := FindSimilar(target, pool, 0)
		assert.Len(t, results, DefaultMaxResults)
	})

	t.Run("ties keep pool order", func(t *testing.T) {
		first := twin
		first.ID = "tie-first"
		second := twin
		second.ID = "tie-second"

		results := FindSimilar(target, []models.Lead{first, second}, 0)

		assert.Len(t, results, 2)
		assert.Equal(t, "tie-first", results[0].Lead.ID)
		assert.Equal(t, "tie-second", results[1].Lead.ID)
	})

	t.Run("empty pool yields empty result", func(t *testing.T) {
		results := FindSimilar(target, nil, 0)
		assert.Empty(t, results)
	})
}
