package batch

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	summaryKey     = "%d thumbnails generated."
	FailureMessage = "Finished with an error."
)

func init() {
	err := message.Set(language.English, summaryKey, plural.Selectf(1, "%d",
		"=1", "1 thumbnail generated.",
		"other", "%d thumbnails generated.",
	))
	if err != nil {
		panic(err)
	}
}

// FormatSummary returns the completion message for count processed items
func FormatSummary(count int) string {
	return message.NewPrinter(language.English).Sprintf(summaryKey, count)
}
