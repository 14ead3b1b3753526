// Package ops registers the leaf operations the scripting DSL can call,
// grounded on original_source/src/libcvpg/imageproc/scripting/algorithms/.
// Each operation self-registers into scripting.Default from an init()
// function, following the teacher's plug-in registration style
// (core/registry.go's Decoder/Encoder registration).
package ops
