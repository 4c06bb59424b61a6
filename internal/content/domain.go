// Package content stores the bilingual text blocks shown on the public site.
package content

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
)

// Supported locales.
const (
	LangEnglish  = "en"
	LangJapanese = "ja"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,127}$`)

// ErrInvalidKey is returned for block keys outside [a-z0-9._-].
var ErrInvalidKey = fmt.Errorf("%w: invalid content key", httpx.ErrValidation)

// Block is one piece of site copy in both languages.
type Block struct {
	Key       string    `json:"key"`
	EN        string    `json:"en"`
	JA        string    `json:"ja"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// Text returns the block in lang, falling back to English when the
// Japanese text is empty. The second result is the language served.
func (b Block) Text(lang string) (string, string) {
	if lang == LangJapanese && b.JA != "" {
		return b.JA, LangJapanese
	}
	return b.EN, LangEnglish
}

// ValidKey reports whether key can name a block.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}
