package engine

import (
	"errors"
	"fmt"
	"strings"

	"menuopt/internal/models"
)

// Rule names reported alongside chat answers
const (
	RuleRemove     = "remove"
	RuleWaste      = "waste"
	RuleHighMargin = "high_margin"
	RuleSuggest    = "suggest"
	RuleHelp       = "help"
)

// HelpText is the reply for questions no rule recognises
const HelpText = "Try asking: *Which dish is most wasted?*, *What should I remove?*, or *Give me high margin dishes.*"

// NoWasteText replaces the waste answer when the sheet has no waste costs
const NoWasteText = "I couldn't find any waste data in the menu yet."

// rule pairs a keyword predicate with the canned answer it selects.
// Rules are evaluated in slice order and the first match wins.
type rule struct {
	name   string
	match  func(query string) bool
	answer func(e *Engine) string
}

func containsAny(keywords ...string) func(string) bool {
	return func(query string) bool {
		for _, kw := range keywords {
			if strings.Contains(query, kw) {
				return true
			}
		}
		return false
	}
}

func defaultRules() []rule {
	return []rule{
		{name: RuleRemove, match: containsAny("remove", "low-selling"), answer: answerRemove},
		{name: RuleWaste, match: containsAny("most wasted", "waste"), answer: answerWaste},
		{name: RuleHighMargin, match: containsAny("high margin"), answer: answerHighMargin},
		{name: RuleSuggest, match: containsAny("suggest", "create"), answer: answerSuggest},
	}
}

func answerRemove(e *Engine) string {
	return "You can consider removing: " + dishNames(e.removalRows())
}

func answerWaste(e *Engine) string {
	row, err := e.MostWastedRow()
	if errors.Is(err, ErrEmptyDataset) {
		return NoWasteText
	}
	return fmt.Sprintf("The most wasted ingredient is in **%s** using **%s** costing %s%s.",
		row.Dish, row.Ingredients, e.currency, row.WasteCost)
}

func answerHighMargin(e *Engine) string {
	rows := e.filter(func(r models.MenuRow) bool { return r.ProfitMargin.AtLeast(ChatMarginThreshold) })
	return "High margin dishes are: " + dishNames(rows)
}

func answerSuggest(e *Engine) string {
	rows := e.filter(isHighWaste)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s ➝ %s", row.Dish, row.SuggestedDish))
	}
	return "Suggested rework dishes:\n" + strings.Join(lines, "\n")
}

// Answer replies to a free-text question and names the rule that fired
func (e *Engine) Answer(text string) (reply string, ruleName string) {
	query := strings.ToLower(text)
	for _, r := range e.rules {
		if r.match(query) {
			return r.answer(e), r.name
		}
	}
	return HelpText, RuleHelp
}

// AnswerQuery replies to a free-text question
func (e *Engine) AnswerQuery(text string) string {
	reply, _ := e.Answer(text)
	return reply
}
