package tables

import "github.com/JonMunkholm/exportsync/internal/core"

func init() {
	registerKeyValue()
}

func registerKeyValue() {
	core.Register(core.LayoutDefinition{
		Info: core.LayoutInfo{
			Key:         "keyvalue",
			Label:       "Parameter list",
			Description: "Keeps rows whose key is a structured parameter name such as Axis.X.Speed",
		},
		NewClassifier: func(spec core.SourceSpec, h *core.Header) (core.Classifier, error) {
			return core.NewKeyValueClassifier(spec, h)
		},
		NewEmitter: core.NewFlatEmitter,
	})
}
