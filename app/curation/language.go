package curation

import (
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
)

const minDetectionLength = 50

const defaultLanguage = "en"

// languageThresholds maps supported language codes to the minimum
// confidence required before pipeline stages act on the detection.
var languageThresholds = map[string]float64{
	"ko": 0.7,
	"en": 0.7,
	"ja": 0.7,
	"zh": 0.7,
	"es": 0.7,
	"fr": 0.7,
	"de": 0.7,
}

var supportedLangs = map[whatlanggo.Lang]string{
	whatlanggo.Kor: "ko",
	whatlanggo.Eng: "en",
	whatlanggo.Jpn: "ja",
	whatlanggo.Cmn: "zh",
	whatlanggo.Spa: "es",
	whatlanggo.Fra: "fr",
	whatlanggo.Deu: "de",
}

var (
	codeBlockRe  = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]*`")
	headerRe     = regexp.MustCompile(`(?m)^#{1,6}\s`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	emphasisRe   = regexp.MustCompile(`\*{1,2}([^\*]+)\*{1,2}`)
	urlRe        = regexp.MustCompile(`https?://\S+`)
	emailRe      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// DetectLanguage returns the most likely language code and its confidence.
// Text too short for reliable statistics returns the default language with
// zero confidence. Low-confidence detections are returned as-is; callers
// decide how to treat them.
func DetectLanguage(text string) (string, float64) {
	if len(strings.TrimSpace(text)) < minDetectionLength {
		return defaultLanguage, 0.0
	}

	cleaned := cleanForDetection(text)
	if len(cleaned) < minDetectionLength {
		return defaultLanguage, 0.0
	}

	info := whatlanggo.Detect(cleaned)

	code, ok := supportedLangs[info.Lang]
	if !ok {
		return whatlanggo.LangToString(info.Lang), info.Confidence
	}

	return code, info.Confidence
}

// cleanForDetection strips markdown syntax, URLs and email addresses,
// which skew character-frequency statistics toward Latin script.
func cleanForDetection(text string) string {
	text = codeBlockRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "")
	text = headerRe.ReplaceAllString(text, "")
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = emphasisRe.ReplaceAllString(text, "$1")
	text = urlRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// IsKorean reports whether the detection result identifies trustworthy
// Korean content.
func IsKorean(code string, confidence float64) bool {
	return code == "ko" && confidence >= languageThresholds["ko"]
}

// IsForeign reports whether the detection result identifies a supported
// non-Korean language with enough confidence to act on. Unsupported or
// below-threshold detections are neither Korean nor foreign.
func IsForeign(code string, confidence float64) bool {
	if code == "ko" {
		return false
	}
	threshold, ok := languageThresholds[code]
	return ok && confidence >= threshold
}
