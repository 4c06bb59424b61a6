package content

import "golang.org/x/text/language"

var matcher = language.NewMatcher([]language.Tag{language.English, language.Japanese})

// Negotiate picks en or ja from an explicit lang value, then the
// Accept-Language header. Unmatched input yields English.
func Negotiate(lang, acceptLanguage string) string {
	_, index := language.MatchStrings(matcher, lang, acceptLanguage)
	if index == 1 {
		return LangJapanese
	}
	return LangEnglish
}
