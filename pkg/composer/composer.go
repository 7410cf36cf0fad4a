// Package composer formats the day's study notes into the markdown entry
// prepended to the monthly document.
package composer

import (
	"fmt"
	"strings"
	"time"

	"github.com/umputun/lingoscope/pkg/domain"
)

// placeholders shown when a generated section came back empty
const (
	noVocabulary     = "暂无词汇。"
	noNews           = "暂无新闻抓取。"
	noVocabularyList = "暂无词汇整理。"
	noGrammar        = "暂无语法说明。"
)

// MonthTitle returns the title of the monthly document for the given date
func MonthTitle(date time.Time) string {
	return "Daily Language Learning " + date.Format("2006-01")
}

// Entry renders the full markdown block for one day
func Entry(date time.Time, english domain.EnglishNotes, japaneseItems []domain.Article, japanese domain.JapaneseNotes) string {
	sections := []string{
		"## " + date.Format("2006-01-02"),
		"### English Learning\n" + strings.TrimSpace(english.Summary),
		"### English Vocabulary\n" + englishVocabulary(english.Vocabulary),
		"### Japanese News\n" + japaneseNews(japaneseItems),
		"### Japanese Translation\n" + strings.TrimSpace(japanese.Translation),
		"### Japanese Vocabulary\n" + japaneseVocabulary(japanese.Vocabulary),
		"### Japanese Grammar\n" + grammarPoints(japanese.Grammar),
	}
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

// englishVocabulary renders the English vocabulary list as markdown bullets
func englishVocabulary(entries []domain.VocabEntry) string {
	if len(entries) == 0 {
		return noVocabulary
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("- **%s**: %s / %s\n  例句: %s", e.Word, e.DefinitionEN, e.DefinitionZH, e.Example))
	}
	return strings.Join(lines, "\n")
}

// japaneseNews renders the fetched Japanese items with their source links
func japaneseNews(items []domain.Article) string {
	if len(items) == 0 {
		return noNews
	}
	blocks := make([]string, 0, len(items))
	for _, item := range items {
		block := fmt.Sprintf("- **%s**\n  %s", item.Title, item.Summary)
		if item.Link != "" {
			block += fmt.Sprintf("\n  [原文链接](%s)", item.Link)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

// japaneseVocabulary renders the Japanese vocabulary list
func japaneseVocabulary(entries []domain.JapaneseVocabEntry) string {
	if len(entries) == 0 {
		return noVocabularyList
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("- **%s** (%s): %s", e.Word, e.PartOfSpeech, e.MeaningZH))
	}
	return strings.Join(lines, "\n")
}

// grammarPoints renders the grammar explanations
func grammarPoints(points []domain.GrammarPoint) string {
	if len(points) == 0 {
		return noGrammar
	}
	lines := make([]string, 0, len(points))
	for _, p := range points {
		lines = append(lines, fmt.Sprintf("- **%s**: %s", p.Title, p.Description))
	}
	return strings.Join(lines, "\n")
}
