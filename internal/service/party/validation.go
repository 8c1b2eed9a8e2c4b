package party

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var HistoryEntryIDRule = []validation.Rule{
	validation.Required,
	validation.Match(regexp.MustCompile(`^[0-9]+$`)),
}

var TargetLanguageRule = []validation.Rule{
	validation.Length(0, 64),
}
