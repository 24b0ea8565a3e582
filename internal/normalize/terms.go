package normalize

// DefaultStopwords lists the corporate suffixes that appear inconsistently
// across court filings for the same entity. Dropping them keeps "Acme LLC"
// and "Acme" in the same equivalence class. The library default is no
// stopwords; callers opt in.
func DefaultStopwords() []string {
	return []string{"llc", "inc", "pllc"}
}

// DefaultAbbreviations maps the long and short spellings that court clerks
// use interchangeably onto a single short form. As with stopwords, the
// library default is an empty table; callers opt in.
func DefaultAbbreviations() map[string]string {
	return map[string]string{
		"apartment":    "apt",
		"apartments":   "apt",
		"company":      "co",
		"furniture":    "fur",
		"credit":       "cr",
		"management":   "mgt",
		"financial":    "fin",
		"services":     "svc",
		"service":      "svc",
		"acceptance":   "acc",
		"corporation":  "corp",
		"property":     "prop",
		"properties":   "prop",
		"recovery":     "rec",
		"holdings":     "hld",
		"bonding":      "bnd",
		"collection":   "col",
		"rental":       "rtl",
		"rentals":      "rtl",
		"homes":        "hms",
		"group":        "grp",
		"realty":       "rlt",
		"bank":         "bk",
		"capital":      "cap",
		"place":        "pl",
		"manor":        "mn",
		"insurance":    "ins",
		"acquisitions": "acq",
		"union":        "un",
	}
}
