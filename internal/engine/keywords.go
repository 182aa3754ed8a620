package engine

import (
	"strings"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// keywordFilter gates rules behind keywords. A rule with keywords is only
// tried when one of them occurs in the current text. Rules without keywords
// are always tried.
type keywordFilter struct {
	// prefilter is an Aho-Corasick trie over every rule keyword, so one
	// scan of the text decides which gated rules are live.
	prefilter      *ahocorasick.Trie
	keywordToRules map[string][]int
	gated          []bool
}

// newKeywordFilter returns nil when no rule declares keywords.
func newKeywordFilter(rules []Rule) *keywordFilter {
	f := &keywordFilter{
		keywordToRules: make(map[string][]int),
		gated:          make([]bool, len(rules)),
	}
	var keywords []string
	for i, r := range rules {
		for _, kw := range r.keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			if _, seen := f.keywordToRules[kw]; !seen {
				keywords = append(keywords, kw)
			}
			f.keywordToRules[kw] = append(f.keywordToRules[kw], i)
			f.gated[i] = true
		}
	}
	if len(keywords) == 0 {
		return nil
	}
	f.prefilter = ahocorasick.NewTrieBuilder().AddStrings(keywords).Build()
	return f
}

// live returns, per rule, whether the rule may be tried against text.
// A nil filter returns nil, meaning every rule is live.
func (f *keywordFilter) live(text string) []bool {
	if f == nil {
		return nil
	}
	live := make([]bool, len(f.gated))
	for i, gated := range f.gated {
		live[i] = !gated
	}
	normalized := strings.ToLower(text)
	for _, m := range f.prefilter.MatchString(normalized) {
		for _, idx := range f.keywordToRules[string(m.Match())] {
			live[idx] = true
		}
	}
	return live
}
