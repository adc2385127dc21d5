package types

import "time"

// Source names for the configured news origins. Scrapers must use these
// exact values so source filtering matches.
const (
	SourceContabeis       = "Contábeis"
	SourceMundoRH         = "Mundo RH"
	SourceGuiaTrabalhista = "Guia Trabalhista"
	SourceTrabalhistaBlog = "Trabalhista Blog"
	SourceGenerated       = "CLT Agora - Análises e Atualizações"
)

// Normalized category values. Anything that doesn't map onto the first
// four buckets becomes CategoryOutros.
const (
	CategoryLegislacao = "Legislação"
	CategoryCarreira   = "Carreira"
	CategoryGestao     = "Gestão"
	CategoryNoticias   = "Notícias"
	CategoryOutros     = "Outros"
)

// RawArticle is what a scraper produces: extracted fields with the
// publication date still in the source's native string form.
type RawArticle struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	RawDate  string `json:"raw_date"`
	Source   string `json:"source"`
	Category string `json:"category"`
	Content  string `json:"content,omitempty"`
	Author   string `json:"author,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Article is a ranked article with the date resolved to an absolute
// UTC instant; the source-native string is kept in RawDate. Scraped
// categories are mapped onto the fixed set above, while generated
// articles keep the labels the generator assigns. Scraped entries
// whose raw date cannot be parsed never become Articles.
type Article struct {
	Title           string    `json:"title"`
	Link            string    `json:"link"`
	RawDate         string    `json:"raw_date,omitempty"`
	Source          string    `json:"source"`
	Category        string    `json:"category"`
	Content         string    `json:"content,omitempty"`
	Author          string    `json:"author,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	PublishedAt     time.Time `json:"date"`
	ImportanceScore int       `json:"importance_score"`
	IsHeadline      bool      `json:"is_headline,omitempty"`
	HeadlineReason  string    `json:"headline_reason,omitempty"`
}

// Clone returns a copy of the article. Used when annotating the headline
// so the cached aggregate is never mutated.
func (a Article) Clone() Article {
	return a
}

// ChatMessage is one turn of a chat conversation. Role is "user" or
// "model".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
