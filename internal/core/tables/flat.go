package tables

import "github.com/JonMunkholm/exportsync/internal/core"

func init() {
	registerFlat()
}

func registerFlat() {
	core.Register(core.LayoutDefinition{
		Info: core.LayoutInfo{
			Key:         "flat",
			Label:       "Flat table",
			Description: "One record per data row; blank rows, repeated headers and sentinel rows are discarded",
		},
		NewClassifier: func(spec core.SourceSpec, h *core.Header) (core.Classifier, error) {
			return core.NewFlatClassifier(spec, h)
		},
		NewEmitter: core.NewFlatEmitter,
	})
}
