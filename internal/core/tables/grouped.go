package tables

import "github.com/JonMunkholm/exportsync/internal/core"

func init() {
	registerGrouped()
}

func registerGrouped() {
	core.Register(core.LayoutDefinition{
		Info: core.LayoutInfo{
			Key:         "grouped",
			Label:       "Grouped items",
			Description: "Marker rows open a group; each item row is attached to the nearest preceding marker",
		},
		NewClassifier: func(spec core.SourceSpec, h *core.Header) (core.Classifier, error) {
			return core.NewGroupedClassifier(spec, h)
		},
		NewEmitter: core.NewHierarchicalEmitter,
	})
}
