// internal/domain/models/language.go
package models

import (
	"fmt"
	"strings"
)

// Language identifies the source language of a program or workspace buffer.
// The set is closed; ParseLanguage rejects anything outside it.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
)

// WelcomeCode is the buffer a brand-new workspace starts with.
const WelcomeCode = "// Start coding here...\nconsole.log(\"Hello, CodePrep Hub!\");"

type languageInfo struct {
	name      string
	extension string
	snippet   string
}

var languages = map[Language]languageInfo{
	LanguageJavaScript: {
		name:      "JavaScript",
		extension: "js",
		snippet:   "// JavaScript\nconsole.log(\"Hello, World!\");",
	},
	LanguagePython: {
		name:      "Python",
		extension: "py",
		snippet:   "# Python\nprint(\"Hello, World!\")",
	},
	LanguageJava: {
		name:      "Java",
		extension: "java",
		snippet: "// Java\npublic class Main {\n    public static void main(String[] args) {\n" +
			"        System.out.println(\"Hello, World!\");\n    }\n}",
	},
	LanguageCPP: {
		name:      "C++",
		extension: "cpp",
		snippet: "// C++\n#include <iostream>\nusing namespace std;\n\nint main() {\n" +
			"    cout << \"Hello, World!\" << endl;\n    return 0;\n}",
	},
}

// Languages lists the supported languages in display order.
func Languages() []Language {
	return []Language{LanguageJavaScript, LanguagePython, LanguageJava, LanguageCPP}
}

// ParseLanguage maps a tag such as "javascript" to a Language.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := languages[l]; !ok {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return l, nil
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := languages[l]
	return ok
}

// DisplayName returns the human-readable name, e.g. "C++".
func (l Language) DisplayName() string {
	if info, ok := languages[l]; ok {
		return info.name
	}
	return string(l)
}

// Extension returns the usual file extension without the dot.
func (l Language) Extension() string {
	return languages[l].extension
}

// DefaultCode returns the starter snippet for l, or "" for unknown languages.
func (l Language) DefaultCode() string {
	return languages[l].snippet
}
