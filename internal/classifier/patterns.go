package classifier

import "regexp"

// shorthandPatterns catch clinical shorthand that keyword matching misses:
// dosage units, vital sign notation and workflow abbreviations.
var shorthandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:mg|mcg|ml|iu|units?)\b`),
	regexp.MustCompile(`\b(?:bp|bpm|mmhg|spo2|o2 sat|heart rate|blood pressure)\b`),
	regexp.MustCompile(`\b(?:rx|dx|hx|prn|bid|tid|qid|npo|f/u|follow[- ]up|refill|referral|lab results?|pre-?op|post-?op)\b`),
}

type patternConcept struct {
	re         *regexp.Regexp
	kind       Kind
	system     string
	code       string
	display    string
	confidence float64
	// subject is the capture group holding a free word that must not be a
	// stop word; 0 means the whole match is used as is.
	subject int
}

var medicationPatterns = []patternConcept{
	{
		re:   regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:mg|mcg|ml|g|iu|units?)\b`),
		kind: KindMedication, system: SystemSNOMED, code: "410942007", display: "Drug or medicament",
		confidence: medicationConfidence,
	},
	{
		re:   regexp.MustCompile(`\b(?:taking|prescribed|on)\s+([a-z][a-z-]{2,})`),
		kind: KindMedication, system: SystemSNOMED, code: "410942007", display: "Drug or medicament",
		confidence: medicationConfidence, subject: 1,
	},
	{
		re:   regexp.MustCompile(`\b([a-z][a-z-]{2,})\s+(?:tablet|pill|capsule|injection)s?\b`),
		kind: KindMedication, system: SystemSNOMED, code: "410942007", display: "Drug or medicament",
		confidence: medicationConfidence, subject: 1,
	},
}

var vitalSignPatterns = []patternConcept{
	{
		re:   regexp.MustCompile(`(?:\bbp\b|blood pressure)\D{0,15}\d{2,3}\s?/\s?\d{2,3}\b|\b\d{2,3}\s?/\s?\d{2,3}\s?mm\s?hg\b`),
		kind: KindVitalSign, system: SystemLOINC, code: "85354-9", display: "Blood pressure",
		confidence: vitalSignConfidence,
	},
	{
		re:   regexp.MustCompile(`\b\d{2,3}\s?bpm\b|\b(?:heart rate|pulse)\D{0,10}\d{2,3}\b`),
		kind: KindVitalSign, system: SystemLOINC, code: "8867-4", display: "Heart rate",
		confidence: vitalSignConfidence,
	},
	{
		re:   regexp.MustCompile(`\b\d{2,3}(?:\.\d)?\s?(?:°\s?[fc]\b|degrees\b(?:\s?(?:f|c|fahrenheit|celsius)\b)?)|\b(?:temperature|temp)\D{0,10}\d{2,3}(?:\.\d)?\b`),
		kind: KindVitalSign, system: SystemLOINC, code: "8310-5", display: "Body temperature",
		confidence: vitalSignConfidence,
	},
	{
		re:   regexp.MustCompile(`\b\d{2,3}(?:\.\d)?\s?(?:lbs?|pounds|kg|kilograms)\b`),
		kind: KindVitalSign, system: SystemLOINC, code: "29463-7", display: "Body weight",
		confidence: vitalSignConfidence,
	},
}

// stopWords are never reported as a medication name.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true, "that": true,
	"my": true, "your": true, "his": true, "her": true, "our": true, "their": true,
	"its": true, "top": true, "time": true, "board": true, "vacation": true, "holiday": true,
	"weekend": true, "monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true, "twitter": true, "facebook": true,
	"way": true, "site": true, "again": true, "one": true, "two": true, "all": true,
}
