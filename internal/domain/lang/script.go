// Package lang holds the per-language text heuristics used by the interview engine:
// character-script classification and closing-topic detection.
package lang

import (
	"unicode"

	"ai-interview-engine/internal/domain/model"
)

const (
	// MinTargetRatio is the share of letters that must belong to the target script.
	MinTargetRatio = 0.6
	// MaxOppositeRatio is the largest share of letters allowed from the opposite script.
	MaxOppositeRatio = 0.2
	// MaxFailedShare is the largest share of off-language questions a batch may contain.
	MaxFailedShare = 0.2
)

var scripts = map[model.Language]*unicode.RangeTable{
	model.LanguageArabic:  unicode.Arabic,
	model.LanguageEnglish: unicode.Latin,
}

// Ratio is the script composition of a text, counted over letters only.
type Ratio struct {
	Letters  int
	Target   float64
	Opposite float64
}

func ScriptRatio(text string, target model.Language) Ratio {
	tt, ot := scripts[target], scripts[target.Opposite()]
	var letters, inTarget, inOpposite int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(tt, r):
			inTarget++
		case unicode.Is(ot, r):
			inOpposite++
		}
	}
	if letters == 0 {
		return Ratio{}
	}
	return Ratio{
		Letters:  letters,
		Target:   float64(inTarget) / float64(letters),
		Opposite: float64(inOpposite) / float64(letters),
	}
}

// Matches reports whether text is written in the target language's script.
func Matches(text string, target model.Language) bool {
	r := ScriptRatio(text, target)
	if r.Letters == 0 {
		return false
	}
	return r.Target >= MinTargetRatio && r.Opposite <= MaxOppositeRatio
}

// BatchCheck summarises script validation over a question bank.
type BatchCheck struct {
	Total  int
	Failed int
}

// Passed is false for an empty batch or when more than MaxFailedShare failed.
func (b BatchCheck) Passed() bool {
	if b.Total == 0 {
		return false
	}
	return float64(b.Failed)/float64(b.Total) <= MaxFailedShare
}

func CheckBatch(questions []string, target model.Language) BatchCheck {
	bc := BatchCheck{Total: len(questions)}
	for _, q := range questions {
		if !Matches(q, target) {
			bc.Failed++
		}
	}
	return bc
}

// Detect guesses the interview language of a free text. Text with a
// substantial Arabic share is Arabic; everything else defaults to English.
func Detect(text string) model.Language {
	r := ScriptRatio(text, model.LanguageArabic)
	if r.Letters > 0 && r.Target >= 0.3 {
		return model.LanguageArabic
	}
	return model.LanguageEnglish
}
