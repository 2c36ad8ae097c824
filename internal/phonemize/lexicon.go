package phonemize

// lexicon holds pronunciations for frequent English words, in IPA with
// stress marks. Entries are converted to the model's phoneme alphabet
// when a G2P engine is built.
var lexicon = map[string]string{
	"a":         "ɐ",
	"about":     "əbˈaʊt",
	"after":     "ˈæftɚ",
	"again":     "əɡˈɛn",
	"all":       "ˈɔl",
	"also":      "ˈɔlsoʊ",
	"an":        "ən",
	"and":       "ænd",
	"any":       "ˈɛni",
	"are":       "ɑɹ",
	"as":        "æz",
	"at":        "æt",
	"back":      "bˈæk",
	"be":        "bi",
	"because":   "bɪkˈʌz",
	"been":      "bɪn",
	"before":    "bɪfˈɔɹ",
	"between":   "bɪtwˈin",
	"big":       "bˈɪɡ",
	"but":       "bʌt",
	"by":        "baɪ",
	"call":      "kˈɔl",
	"can":       "kæn",
	"come":      "kˈʌm",
	"could":     "kʊd",
	"day":       "dˈeɪ",
	"did":       "dɪd",
	"do":        "du",
	"does":      "dʌz",
	"don't":     "dˈoʊnt",
	"down":      "dˈaʊn",
	"each":      "ˈiʧ",
	"even":      "ˈivən",
	"every":     "ˈɛvɹi",
	"find":      "fˈaɪnd",
	"first":     "fˈɜɹst",
	"for":       "fɔɹ",
	"from":      "fɹʌm",
	"get":       "ɡˈɛt",
	"give":      "ɡˈɪv",
	"go":        "ɡˈoʊ",
	"good":      "ɡˈʊd",
	"great":     "ɡɹˈeɪt",
	"had":       "hæd",
	"has":       "hæz",
	"have":      "hæv",
	"he":        "hi",
	"hello":     "həlˈoʊ",
	"her":       "hɜɹ",
	"here":      "hˈɪɹ",
	"him":       "hɪm",
	"his":       "hɪz",
	"how":       "hˈaʊ",
	"i":         "ˈaɪ",
	"i'm":       "ˈaɪm",
	"if":        "ɪf",
	"in":        "ɪn",
	"into":      "ˈɪntu",
	"is":        "ɪz",
	"it":        "ɪt",
	"it's":      "ɪts",
	"its":       "ɪts",
	"just":      "ʤˈʌst",
	"know":      "nˈoʊ",
	"last":      "lˈæst",
	"like":      "lˈaɪk",
	"little":    "lˈɪtəl",
	"long":      "lˈɔŋ",
	"look":      "lˈʊk",
	"make":      "mˈeɪk",
	"many":      "mˈɛni",
	"may":       "mˈeɪ",
	"me":        "mi",
	"more":      "mˈɔɹ",
	"most":      "mˈoʊst",
	"my":        "maɪ",
	"new":       "nˈu",
	"no":        "nˈoʊ",
	"not":       "nˈɑt",
	"now":       "nˈaʊ",
	"of":        "ʌv",
	"off":       "ˈɔf",
	"on":        "ˈɑn",
	"one":       "wˈʌn",
	"only":      "ˈoʊnli",
	"or":        "ɔɹ",
	"other":     "ˈʌðɚ",
	"our":       "ˈaʊɚ",
	"out":       "ˈaʊt",
	"over":      "ˈoʊvɚ",
	"people":    "pˈipəl",
	"please":    "plˈiz",
	"right":     "ɹˈaɪt",
	"said":      "sˈɛd",
	"say":       "sˈeɪ",
	"see":       "sˈi",
	"she":       "ʃi",
	"should":    "ʃʊd",
	"so":        "sˈoʊ",
	"some":      "sʌm",
	"sorry":     "sˈɑɹi",
	"speech":    "spˈiʧ",
	"take":      "tˈeɪk",
	"text":      "tˈɛkst",
	"than":      "ðæn",
	"thank":     "θˈæŋk",
	"thanks":    "θˈæŋks",
	"that":      "ðæt",
	"the":       "ðə",
	"their":     "ðɛɹ",
	"them":      "ðɛm",
	"then":      "ðˈɛn",
	"there":     "ðˈɛɹ",
	"these":     "ðˈiz",
	"they":      "ðˈeɪ",
	"think":     "θˈɪŋk",
	"this":      "ðˈɪs",
	"those":     "ðˈoʊz",
	"through":   "θɹˈu",
	"time":      "tˈaɪm",
	"to":        "tu",
	"today":     "tədˈeɪ",
	"two":       "tˈu",
	"under":     "ˈʌndɚ",
	"up":        "ˈʌp",
	"us":        "ˈʌs",
	"use":       "jˈuz",
	"very":      "vˈɛɹi",
	"voice":     "vˈɔɪs",
	"want":      "wˈɑnt",
	"was":       "wʌz",
	"way":       "wˈeɪ",
	"we":        "wi",
	"well":      "wˈɛl",
	"were":      "wɜɹ",
	"what":      "wˈʌt",
	"when":      "wˈɛn",
	"where":     "wˈɛɹ",
	"which":     "wˈɪʧ",
	"who":       "hˈu",
	"why":       "wˈaɪ",
	"will":      "wɪl",
	"with":      "wɪð",
	"word":      "wˈɜɹd",
	"work":      "wˈɜɹk",
	"world":     "wˈɜɹld",
	"would":     "wʊd",
	"yes":       "jˈɛs",
	"you":       "ju",
	"your":      "jʊɹ",
	"zero":      "zˈɪɹoʊ",
	"three":     "θɹˈi",
	"four":      "fˈɔɹ",
	"five":      "fˈaɪv",
	"six":       "sˈɪks",
	"seven":     "sˈɛvən",
	"eight":     "ˈeɪt",
	"nine":      "nˈaɪn",
	"ten":       "tˈɛn",
	"eleven":    "ɪlˈɛvən",
	"twelve":    "twˈɛlv",
	"thirteen":  "θɜɹtˈin",
	"fourteen":  "fɔɹtˈin",
	"fifteen":   "fɪftˈin",
	"sixteen":   "sɪkstˈin",
	"seventeen": "sɛvəntˈin",
	"eighteen":  "eɪtˈin",
	"nineteen":  "naɪntˈin",
	"twenty":    "twˈɛnti",
	"thirty":    "θˈɜɹti",
	"forty":     "fˈɔɹti",
	"fifty":     "fˈɪfti",
	"sixty":     "sˈɪksti",
	"seventy":   "sˈɛvənti",
	"eighty":    "ˈeɪti",
	"ninety":    "nˈaɪnti",
	"hundred":   "hˈʌndɹəd",
	"thousand":  "θˈaʊzənd",
	"million":   "mˈɪljən",
	"billion":   "bˈɪljən",
	"point":     "pˈɔɪnt",
	"minus":     "mˈaɪnəs",
	"mister":    "mˈɪstɚ",
	"missus":    "mˈɪsɪz",
	"doctor":    "dˈɑktɚ",
	"saint":     "sˈeɪnt",
	"versus":    "vˈɜɹsəs",
	"etcetera":  "ɛtsˈɛtɚə",
}

// abbreviations are expanded before tokenizing. Matching is
// case-sensitive and whole-token.
var abbreviations = map[string]string{
	"Mr.":     "Mister",
	"Mrs.":    "Missus",
	"Dr.":     "Doctor",
	"St.":     "Saint",
	"vs.":     "versus",
	"etc.":    "etcetera",
	"e.g.":    "for example",
	"i.e.":    "that is",
	"approx.": "approximately",
}

// spellingRules maps grapheme clusters to IPA. Clusters are matched
// longest first, four letters down to one.
var spellingRules = map[string]string{
	"tion": "ʃən",
	"sion": "ʒən",
	"ough": "ʌf",
	"ight": "aɪt",
	"eous": "iəs",
	"ious": "iəs",
	"ture": "ʧɚ",
	"sure": "ʃɚ",
	"ould": "ʊd",
	"ound": "aʊnd",
	"ence": "əns",
	"ance": "əns",
	"ment": "mənt",
	"ness": "nəs",
	"able": "əbəl",
	"ible": "əbəl",
	"ally": "əli",
	"ful":  "fəl",
	"ing":  "ɪŋ",
	"ght":  "t",
	"tch":  "ʧ",
	"dge":  "ʤ",
	"sch":  "sk",
	"chr":  "kɹ",
	"que":  "k",
	"ph":   "f",
	"th":   "θ",
	"sh":   "ʃ",
	"ch":   "ʧ",
	"wh":   "w",
	"wr":   "ɹ",
	"kn":   "n",
	"gn":   "n",
	"ck":   "k",
	"ng":   "ŋ",
	"gh":   "",
	"ee":   "i",
	"ea":   "i",
	"oo":   "u",
	"ou":   "aʊ",
	"ow":   "oʊ",
	"ai":   "eɪ",
	"ay":   "eɪ",
	"oi":   "ɔɪ",
	"oy":   "ɔɪ",
	"au":   "ɔ",
	"aw":   "ɔ",
	"er":   "ɚ",
	"ir":   "ɜɹ",
	"ur":   "ɜɹ",
	"ar":   "ɑɹ",
	"or":   "ɔɹ",
	"le":   "əl",
	"a":    "æ",
	"b":    "b",
	"c":    "k",
	"d":    "d",
	"e":    "ɛ",
	"f":    "f",
	"g":    "ɡ",
	"h":    "h",
	"i":    "ɪ",
	"j":    "ʤ",
	"k":    "k",
	"l":    "l",
	"m":    "m",
	"n":    "n",
	"o":    "ɑ",
	"p":    "p",
	"q":    "k",
	"r":    "ɹ",
	"s":    "s",
	"t":    "t",
	"u":    "ʌ",
	"v":    "v",
	"w":    "w",
	"x":    "ks",
	"y":    "j",
	"z":    "z",
}
