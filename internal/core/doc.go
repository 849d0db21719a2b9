// Package core provides the normalization logic for manufacturing exports.
//
// This package contains all domain logic independent of any transport or
// storage engine. It can be driven by the batch command, the HTTP server, or
// tests without modification.
//
// # Architecture
//
// A run moves one source through a fixed pipeline:
//
//  1. [ReadSource] opens the file and yields positional rows. Delimited text
//     is decoded with the first of the source's encodings that maps every
//     byte ([DecodeFallback]); spreadsheets are read with excelize.
//  2. [SplitHeader] takes the first non-blank row as the header, unless the
//     source declares fixed columns.
//  3. The layout's [Classifier] tags each body row as data, discard or group
//     marker.
//  4. [Reconstruct] folds the tagged rows with an explicit [GroupState], so
//     each data row carries the group of the nearest preceding marker.
//  5. The layout's [EmitFunc] coerces cells into typed records and the
//     resulting [Table] is written through a [Store].
//
// # Layouts
//
// Layouts are registered at init time using [Register]; the built-in ones
// live in the tables subpackage:
//
//	core.Register(core.LayoutDefinition{
//	    Info:          core.LayoutInfo{Key: "grouped", Label: "Grouped items"},
//	    NewClassifier: newGroupedClassifier,
//	    NewEmitter:    core.NewHierarchicalEmitter,
//	})
//
// # Error Handling
//
// [Service.Run] is the error boundary. Whole-source failures end the run with
// a status ([StatusSourceNotFound], [StatusUnparsableSource],
// [StatusHeaderNotFound], [StatusFailed]) and a coded message from
// [MapError]:
//
//   - SRC001-SRC005: Source errors (missing file, encoding, header, layout)
//   - DB001-DB006: Destination errors (connection, locks, schema)
//   - RUN001: No run slot available
//   - RUN002: No source with the requested name
//
// Problems with individual rows never fail a run; they are discarded or
// coerced and counted in [RunStats].
package core
