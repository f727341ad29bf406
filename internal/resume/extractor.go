// Package resume turns an uploaded résumé into plain text and picks the
// candidate's contact details out of it.
package resume

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s-]{8,15}\d`)
	namePattern  = regexp.MustCompile(`^[A-Z][a-z]+$`)
)

// labelWords are capitalized words that open résumé sections or contact lines
// and never belong to a person's name.
var labelWords = map[string]struct{}{
	"Contact": {}, "Email": {}, "Phone": {}, "Resume": {}, "Curriculum": {},
	"Vitae": {}, "Address": {}, "Mobile": {}, "Tel": {}, "Linkedin": {},
	"Github": {}, "Profile": {}, "Summary": {}, "Objective": {}, "Experience": {},
	"Education": {}, "Skills": {}, "Name": {}, "Dear": {}, "Hello": {},
	"Hi": {}, "Personal": {}, "Details": {}, "Information": {}, "Cover": {},
	"Letter": {}, "References": {}, "Projects": {}, "Languages": {}, "Work": {},
}

// Fields are the contact details found in a résumé. Missing values are empty.
type Fields struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ExtractFields returns the first name, email and phone found in text.
func ExtractFields(text string) Fields {
	return Fields{
		Name:  findName(text),
		Email: emailPattern.FindString(text),
		Phone: strings.TrimSpace(phonePattern.FindString(text)),
	}
}

type word struct {
	text string
	// gap is the whitespace between this word and the next one.
	gap string
}

// findName looks for the first two consecutive capitalized words separated by
// a single whitespace character.
func findName(text string) string {
	words := splitWords(text)
	for i := 0; i+1 < len(words); i++ {
		first, second := words[i], words[i+1]
		if gap := []rune(first.gap); len(gap) != 1 || !unicode.IsSpace(gap[0]) {
			continue
		}
		if !namePattern.MatchString(first.text) || !namePattern.MatchString(second.text) {
			continue
		}
		if isLabel(first.text) || isLabel(second.text) {
			continue
		}
		return first.text + first.gap + second.text
	}
	return ""
}

func isLabel(w string) bool {
	_, ok := labelWords[w]
	return ok
}

// splitWords cuts text into runs of letters. Any other character ends a word;
// the gap records what separates it from the following word, so punctuation
// such as "Jane, Doe" breaks a pair.
func splitWords(text string) []word {
	var (
		words   []word
		current strings.Builder
		gap     strings.Builder
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		words = append(words, word{text: current.String()})
		current.Reset()
		gap.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) {
			if current.Len() == 0 && len(words) > 0 {
				words[len(words)-1].gap = gap.String()
			}
			current.WriteRune(r)
			continue
		}
		flush()
		gap.WriteRune(r)
	}
	flush()

	return words
}
