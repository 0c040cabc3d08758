package lang

import (
	"regexp"

	"ai-interview-engine/internal/domain/model"
)

// salaryPatterns detect the compensation topic that closes an interview.
// Arabic words are bounded by non-letters and may carry the usual proclitics
// and possessive suffixes; RE2's \b only understands ASCII.
var salaryPatterns = map[model.Language]*regexp.Regexp{
	model.LanguageEnglish: regexp.MustCompile(
		`(?i)\b(?:salary|salaries|compensation|remuneration|wages?|pay\s+(?:range|expectations?|scale)|expected\s+pay|how\s+much\s+(?:do|would)\s+you\s+(?:expect|want)\s+to\s+(?:earn|make|be\s+paid))\b`,
	),
	model.LanguageArabic: regexp.MustCompile(
		`(?:^|[^\p{L}])[وفبل]?(?:ال)?(?:راتب|رواتب|مرتب|أجر|اجر|تعويض|تعويضات)(?:ك|كم|ه|ها)?(?:$|[^\p{L}])` +
			`|المقابل المادي|توقعاتك المالية|الجانب المالي`,
	),
}

// IsSalaryQuestion reports whether q asks about compensation. The session
// language is tried first; questions are occasionally mixed-script so the
// other table entry is consulted as well.
func IsSalaryQuestion(q string, l model.Language) bool {
	if re, ok := salaryPatterns[l]; ok && re.MatchString(q) {
		return true
	}
	if re, ok := salaryPatterns[l.Opposite()]; ok && re.MatchString(q) {
		return true
	}
	return false
}
