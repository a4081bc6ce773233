package detect

import (
	"regexp"
)

// Placeholder tokens substituted for masked PII.
const (
	EmailPlaceholder   = "<EMAIL_ADDRESS>"
	PhonePlaceholder   = "<PHONE_NUMBER>"
	CardPlaceholder    = "<CREDIT_CARD>"
	MedicalPlaceholder = "<MEDICAL_TERM>"
)

var (
	emailRe = regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)

	// Intentionally loose — matches many non-phone digit sequences.
	// Inherited from the original detector set; tightening it changes
	// redaction behavior, so it stays as-is.
	phoneRe = regexp.MustCompile(`(\+\d{1,3}[-\s.]?)?\(?\d{3}\)?[-\s.]?\d{3}[-\s.]?\d{4}\b`)

	// Candidate card numbers: 13-19 digits with optional space/dash
	// separators. Candidates only count after passing the Luhn check.
	cardRe = regexp.MustCompile(`\b\d(?:[ \-]?\d){12,18}\b`)

	medicalRe = regexp.MustCompile(`(?i)\b(diagnos(?:is|ed|es)|prescri(?:ption|bed)|medication|chemotherapy|insulin|diabetes|hypertension|psychiatric|hiv\s+positive|blood\s+pressure|medical\s+record)\b`)

	digitsOnly = regexp.MustCompile(`\D`)
)

// LuhnValid reports whether s, after stripping non-digits, is a 13-19 digit
// sequence satisfying the Luhn checksum. Only Luhn-valid candidates count as
// credit-card hits, which keeps arbitrary digit runs from false-positive.
func LuhnValid(s string) bool {
	digits := digitsOnly.ReplaceAllString(s, "")
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

type regexScanner struct {
	category    string
	re          *regexp.Regexp
	placeholder string
}

func (s *regexScanner) Category() string { return s.category }

func (s *regexScanner) Find(text string) []string {
	return s.re.FindAllString(text, -1)
}

func (s *regexScanner) Redact(text string) (string, bool) {
	if !s.re.MatchString(text) {
		return text, false
	}
	return s.re.ReplaceAllString(text, s.placeholder), true
}

// cardScanner wraps the candidate regex with Luhn validation so that only
// real card numbers are reported or masked.
type cardScanner struct{}

func (s *cardScanner) Category() string { return "credit_card" }

func (s *cardScanner) Find(text string) []string {
	var hits []string
	for _, m := range cardRe.FindAllString(text, -1) {
		if LuhnValid(m) {
			hits = append(hits, m)
		}
	}
	return hits
}

func (s *cardScanner) Redact(text string) (string, bool) {
	changed := false
	out := cardRe.ReplaceAllStringFunc(text, func(m string) string {
		if !LuhnValid(m) {
			return m
		}
		changed = true
		return CardPlaceholder
	})
	return out, changed
}

// NewEmailScanner returns the email address scanner.
func NewEmailScanner() PIIScanner {
	return &regexScanner{category: "email", re: emailRe, placeholder: EmailPlaceholder}
}

// NewPhoneScanner returns the phone number scanner.
func NewPhoneScanner() PIIScanner {
	return &regexScanner{category: "phone", re: phoneRe, placeholder: PhonePlaceholder}
}

// NewCardScanner returns the Luhn-validated credit card scanner.
func NewCardScanner() PIIScanner {
	return &cardScanner{}
}

// NewMedicalScanner returns the medical-term marker scanner.
func NewMedicalScanner() PIIScanner {
	return &regexScanner{category: "medical", re: medicalRe, placeholder: MedicalPlaceholder}
}
