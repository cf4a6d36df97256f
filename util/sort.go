package util

import (
	"regexp"
	"strings"
)

var (
	UIDMatcher = regexp.MustCompile("^[a-zA-Z0-9]([a-zA-Z0-9-]{1,30}[a-zA-Z0-9])$")

	titleSortMatcher = regexp.MustCompile(`^(A|The|An|Der|Die|Das|Den|Ein|Eine|Einen|Dem|Des|Einem|Eines|Le|La|Les|L\'|Un|Une)\s+`)
)

// TitleSort moves a leading article to the end so titles collate the way
// library catalogs expect ("The Promised Land" -> "Promised Land, The").
func TitleSort(title string) string {
	match := titleSortMatcher.FindStringSubmatch(title)
	if match != nil {
		prep := match[1]
		title = strings.TrimPrefix(title, prep) + ", " + prep
	}
	return strings.TrimSpace(title)
}

// GetSortedAuthor rewrites "First Last" as "Last, First", keeping
// generational suffixes attached to the surname.
func GetSortedAuthor(value string) string {
	var value2 string
	regexes := []string{"^(JR|SR)\\.?$", "^I{1,3}\\.?$", "^IV\\.?$"}
	combined := "(" + strings.Join(regexes, "|") + ")"
	values := strings.Split(value, " ")

	if !strings.Contains(value, ",") {
		if match, _ := regexp.MatchString(combined, strings.ToUpper(values[len(values)-1])); match {
			if len(values) > 1 {
				value2 = values[len(values)-2] + ", " + strings.Join(values[:len(values)-2], " ") + " " + values[len(values)-1]
			} else {
				value2 = values[0]
			}
		} else if len(values) == 1 {
			value2 = values[0]
		} else {
			value2 = values[len(values)-1] + ", " + strings.Join(values[:len(values)-1], " ")
		}
	} else {
		value2 = value
	}

	return value2
}

// NaturalLess compares two strings treating digit runs as numbers, so
// "page2" sorts before "page10". Scanner archives rarely zero-pad.
func NaturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			aNum, aRest := takeDigits(a)
			bNum, bRest := takeDigits(b)
			if aNum != bNum {
				return numLess(aNum, bNum)
			}
			a, b = aRest, bRest
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func takeDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func numLess(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
