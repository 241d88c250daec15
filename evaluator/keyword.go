// evaluator/keyword.go - Title keyword rules
package evaluator

import (
	"regexp"
	"sort"
	"strings"

	"shelfquest/models"
)

type keywordRule struct {
	rule     models.Achievement
	keywords []string
	patterns []*regexp.Regexp
}

// TitleKeyword awards rules whose keyword list matches a finished item's
// title text on a word boundary. Every matching item emits its own event;
// the ledger collapses them to a single award.
func TitleKeyword(user *models.UserSnapshot, achievements []models.Achievement, ctx *Context) []Event {
	var rules []keywordRule
	for _, a := range achievements {
		if a.Category != "title_keyword" {
			continue
		}
		keywords := a.KeywordsAny
		if len(keywords) == 0 {
			keywords = keywordsFromTrigger(a.Trigger)
		}
		if len(keywords) == 0 {
			continue
		}

		kr := keywordRule{rule: a, keywords: keywords}
		for _, kw := range keywords {
			p, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`)
			if err != nil {
				continue
			}
			kr.patterns = append(kr.patterns, p)
		}
		if len(kr.patterns) > 0 {
			rules = append(rules, kr)
		}
	}
	if len(rules) == 0 || len(user.FinishedIDs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(user.FinishedIDs))
	for id := range user.FinishedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var earned []Event

	for _, itemID := range ids {
		item := ctx.Item(itemID)
		if item == nil {
			continue
		}
		text := item.SearchableText()
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)

		for _, kr := range rules {
			for i, p := range kr.patterns {
				if p.MatchString(lower) {
					earned = append(earned, newEvent(kr.rule, models.Evidence{
						"itemId":            itemID,
						"title":             text,
						"matched":           kr.keywords[i],
						models.TimestampKey: user.FinishDate(itemID),
					}))
					break
				}
			}
		}
	}

	return earned
}
