package i18n

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/overseerbot/overseer/resources"
)

var state = struct {
	translations map[string]map[string]string
	loaded       map[string]bool
}{
	translations: make(map[string]map[string]string),
	loaded:       make(map[string]bool),
}

func load(lang string) {
	if "en" == lang {
		return
	}

	raw, err := resources.FS.ReadFile(fmt.Sprintf("i18n/%s.yml", lang))
	if err != nil {
		log.WithError(err).Errorln("cant load i18n")
		return
	}
	translations := make(map[string]string)
	if err := yaml.Unmarshal(raw, &translations); err != nil {
		log.WithError(err).Errorln("cant unmarshal i18n")
		return
	}
	state.translations[lang] = translations
	state.loaded[lang] = true
}

// Get returns the translation for key, falling back to the key itself.
// English is the key language.
func Get(key, lang string) string {
	if "en" == lang {
		return key
	}
	if !state.loaded[lang] {
		load(lang)
	}
	if res, ok := state.translations[lang][key]; ok {
		return res
	}
	return key
}
