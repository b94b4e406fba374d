package extraction

// Canonical color names with their transliteration variants as they appear
// in scraped product text. Variants are matched against folded lowercase
// text; the earliest occurrence in the text wins, slice order breaks ties.
var colorNames = []struct {
	variant   string
	canonical string
}{
	{"bej", "bej"},
	{"beyaz", "beyaz"},
	{"bordo", "bordo"},
	{"ekru", "ekru"},
	{"gri", "gri"},
	{"haki", "haki"},
	{"kahverengi", "kahverengi"},
	{"kahve", "kahverengi"},
	{"kirmizi", "kırmızı"},
	{"lacivert", "lacivert"},
	{"mavi", "mavi"},
	{"mor", "mor"},
	{"pembe", "pembe"},
	{"sari", "sarı"},
	{"siyah", "siyah"},
	{"turuncu", "turuncu"},
	{"yesil", "yeşil"},
	{"renkli", "çok renkli"},
	{"fusya", "fuşya"},
	{"antrasit", "antrasit"},
	{"petrol", "petrol"},
	{"vizon", "vizon"},
	{"gumus", "gümüş"},
	{"tas", "taş"},
	{"pudra", "pudra"},
	{"turkuaz", "turkuaz"},
	{"altin", "altın"},
	{"indigo", "indigo"},
	{"black", "siyah"},
	{"white", "beyaz"},
	{"blue", "mavi"},
	{"navy", "lacivert"},
	{"red", "kırmızı"},
	{"green", "yeşil"},
	{"grey", "gri"},
	{"gray", "gri"},
	{"pink", "pembe"},
	{"beige", "bej"},
}

// Gender keywords mapped to the marketplace's canonical gender values.
// Two-word child forms are checked before the single-word adult forms.
var genderPhrases = []struct {
	phrase string
	value  string
}{
	{"erkek cocuk", "Erkek Çocuk"},
	{"kiz cocuk", "Kız Çocuk"},
	{"boy", "Erkek Çocuk"},
	{"girl", "Kız Çocuk"},
	{"erkek", "Erkek"},
	{"men", "Erkek"},
	{"man", "Erkek"},
	{"kadin", "Kadın"},
	{"bayan", "Kadın"},
	{"women", "Kadın"},
	{"woman", "Kadın"},
	{"unisex", "Unisex"},
}

// Age group keywords mapped to canonical age group values.
var agePhrases = []struct {
	phrase string
	value  string
}{
	{"yenidogan", "Bebek"},
	{"bebek", "Bebek"},
	{"baby", "Bebek"},
	{"infant", "Bebek"},
	{"cocuk", "Çocuk"},
	{"child", "Çocuk"},
	{"kid", "Çocuk"},
	{"genc", "Genç"},
	{"teen", "Genç"},
	{"yetiskin", "Yetişkin"},
	{"adult", "Yetişkin"},
}

// Multi-piece set keywords. Numeral patterns like "2'li" and "3'lü" are
// handled by regex, this table covers the plain words.
var setKeywords = []string{
	"takim",
	"set",
	"ikili",
	"uclu",
	"dortlu",
	"pack",
}

// fiberNames recognized inside fabric composition phrases, folded form to
// display form.
var fiberNames = map[string]string{
	"pamuk":     "Pamuk",
	"polyester": "Polyester",
	"poliester": "Polyester",
	"elastan":   "Elastan",
	"viskon":    "Viskon",
	"viskoz":    "Viskon",
	"keten":     "Keten",
	"yun":       "Yün",
	"akrilik":   "Akrilik",
	"naylon":    "Naylon",
	"polyamid":  "Polyamid",
	"modal":     "Modal",
	"liyosel":   "Liyosel",
	"cotton":    "Pamuk",
	"linen":     "Keten",
	"wool":      "Yün",
}
