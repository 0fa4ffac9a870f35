// Package i18n resolves the request language and translates the fixed
// messages shown by the error, not-found, loading and login pages.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	ErrorTitle    = "error.title"
	ErrorBody     = "error.body"
	ErrorReload   = "error.reload"
	NotFoundTitle = "notfound.title"
	NotFoundBody  = "notfound.body"
	NotFoundHome  = "notfound.home"
	Loading       = "loading"
	LoginTitle    = "login.title"
	LoginSignIn   = "login.signin"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		ErrorTitle:    "Something went wrong",
		ErrorBody:     "This page hit an unexpected error. You can try loading it again.",
		ErrorReload:   "Try again",
		NotFoundTitle: "Page not found",
		NotFoundBody:  "The page you are looking for does not exist.",
		NotFoundHome:  "Go home",
		Loading:       "Loading",
		LoginTitle:    "Sign in to Campaign Desk",
		LoginSignIn:   "Sign in",
	},
	language.Spanish: {
		ErrorTitle:    "Algo salió mal",
		ErrorBody:     "Esta página encontró un error inesperado. Puedes intentar cargarla de nuevo.",
		ErrorReload:   "Reintentar",
		NotFoundTitle: "Página no encontrada",
		NotFoundBody:  "La página que buscas no existe.",
		NotFoundHome:  "Ir al inicio",
		Loading:       "Cargando",
		LoginTitle:    "Inicia sesión en Campaign Desk",
		LoginSignIn:   "Iniciar sesión",
	},
}

var supportedTags = []language.Tag{
	language.English,
	language.Spanish,
}

var tagMatcher = language.NewMatcher(supportedTags)

func init() {
	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic("i18n: set " + key + ": " + err.Error())
			}
		}
	}
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.English
}

// ResolveTag picks the supported language that best matches the request's
// Accept-Language header.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}
	accept := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if accept == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, conf := tagMatcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return supportedTags[idx]
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Translator renders message keys in one language. Templates call T.
type Translator struct {
	Tag     language.Tag
	printer *message.Printer
}

// ForRequest returns a Translator for the request's language.
func ForRequest(r *http.Request) Translator {
	tag := ResolveTag(r)
	return Translator{Tag: tag, printer: Printer(tag)}
}

// T translates key. Unknown keys are returned unchanged.
func (t Translator) T(key string) string {
	if t.printer == nil {
		return Printer(Default()).Sprintf(key)
	}
	return t.printer.Sprintf(key)
}

// Lang is the BCP 47 tag for the html lang attribute.
func (t Translator) Lang() string {
	return t.Tag.String()
}
