package model

const (
	LanguagePython = "python"
	LanguageNodeJS = "nodejs"
	LanguageCpp    = "cpp"
	LanguageJava   = "java"
)

var SupportedLanguages = []string{LanguagePython, LanguageNodeJS, LanguageCpp, LanguageJava}

func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
