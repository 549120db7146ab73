package server

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	platformi18n "github.com/louisbranch/mesa.live/internal/platform/i18n"
)

const saveConfirmationKey = "table.save.confirmed"

var notificationCatalog = func() catalog.Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(platformi18n.DefaultTag()))
	translations := map[language.Tag]string{
		language.AmericanEnglish:     "Game saved successfully!",
		language.BrazilianPortuguese: "Jogo salvo com sucesso!",
	}
	for tag, body := range translations {
		if err := builder.SetString(tag, saveConfirmationKey, body); err != nil {
			panic(err)
		}
	}
	return builder
}()

// resolveLocale maps the configured default locale onto a supported tag.
func resolveLocale(value string) language.Tag {
	return platformi18n.Match(value)
}

// saveConfirmationBody returns the save notification in the room's locale.
func saveConfirmationBody(tag language.Tag) string {
	printer := message.NewPrinter(tag, message.Catalog(notificationCatalog))
	return printer.Sprintf(saveConfirmationKey)
}
