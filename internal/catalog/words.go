package catalog

// stopwords are Spanish function words that never identify a product
var stopwords = toSet(
	"a", "al", "algo", "como", "con", "cual", "cuanto", "cuanta", "de", "del",
	"el", "ella", "en", "es", "esa", "ese", "eso", "esta", "este", "esto",
	"hay", "la", "las", "le", "les", "lo", "los", "me", "mi", "mis", "muy",
	"o", "para", "pero", "por", "que", "quiero", "se", "si", "sin", "sobre",
	"su", "sus", "te", "tiene", "tienen", "tu", "tus", "u", "un", "una",
	"unas", "uno", "unos", "y", "ya", "yo",
)

// brandWords are the store's own brand terms. Every product carries them,
// so they must never decide a match.
var brandWords = toSet(
	"botanika", "botanica",
)

// spelledNumbers maps spelled-out Spanish numerals to their value
var spelledNumbers = map[string]int{
	"uno":    1,
	"una":    1,
	"dos":    2,
	"tres":   3,
	"cuatro": 4,
	"cinco":  5,
	"seis":   6,
	"siete":  7,
	"ocho":   8,
	"nueve":  9,
	"diez":   10,
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isFiltered(token string) bool {
	if _, ok := stopwords[token]; ok {
		return true
	}
	_, ok := brandWords[token]
	return ok
}

// keywords returns the distinct content tokens of text: normalized, with
// stopwords and brand words removed
func keywords(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range Tokens(text) {
		if isFiltered(token) {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}
