package domain

// VocabEntry is a single English vocabulary item from the generated notes
type VocabEntry struct {
	Word         string `json:"word"`
	DefinitionEN string `json:"definition_en"`
	DefinitionZH string `json:"definition_zh"`
	Example      string `json:"example"`
}

// EnglishNotes is the structured result of the English study-notes generation
type EnglishNotes struct {
	Summary    string       `json:"summary"`
	Vocabulary []VocabEntry `json:"vocabulary"`
}

// JapaneseVocabEntry is a single Japanese vocabulary item with its Chinese meaning
type JapaneseVocabEntry struct {
	Word         string `json:"word"`
	PartOfSpeech string `json:"part_of_speech"`
	MeaningZH    string `json:"meaning_zh"`
}

// GrammarPoint describes one grammar construct found in the source news
type GrammarPoint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// JapaneseNotes is the structured result of the Japanese study-notes generation
type JapaneseNotes struct {
	Translation string               `json:"translation"`
	Vocabulary  []JapaneseVocabEntry `json:"vocabulary"`
	Grammar     []GrammarPoint       `json:"grammar"`
}
