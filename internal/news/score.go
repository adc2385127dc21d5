package news

import (
	"strings"

	"github.com/cltagora/cltagora/internal/types"
)

// importanceKeywords is the heuristic weight table for ranking titles.
// Weights are additive; a title matching nothing scores zero.
var importanceKeywords = map[string]int{
	"urgente":    3,
	"importante": 3,
	"nova lei":   3,
	"decreto":    3,
	"prazo":      2,
	"atenção":    2,
	"regras":     2,
	"muda":       2,
	"novo":       1,
}

// Importance scores a title by keyword weight.
func Importance(title string) int {
	title = strings.ToLower(title)
	score := 0
	for keyword, weight := range importanceKeywords {
		if strings.Contains(title, keyword) {
			score += weight
		}
	}
	return score
}

// NormalizeCategory maps free-text source categories onto the fixed
// set. Matching is substring-based since sources phrase categories
// inconsistently ("Legislação Trabalhista", "legislacao", ...).
func NormalizeCategory(category string) string {
	category = strings.ToLower(category)
	switch {
	case strings.Contains(category, "legislação"), strings.Contains(category, "legislacao"):
		return types.CategoryLegislacao
	case strings.Contains(category, "carreira"):
		return types.CategoryCarreira
	case strings.Contains(category, "gestão"), strings.Contains(category, "gestao"):
		return types.CategoryGestao
	case strings.Contains(category, "notícia"), strings.Contains(category, "noticia"):
		return types.CategoryNoticias
	default:
		return types.CategoryOutros
	}
}
