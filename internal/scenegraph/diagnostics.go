package scenegraph

import "fmt"

// DiagnosticCode identifies a non-fatal condition observed during a build.
type DiagnosticCode string

const (
	// DiagUnknownEffectKind marks an effect family absent from the
	// feature-equivalence table. The node is tagged Unsupported and the
	// build continues.
	DiagUnknownEffectKind DiagnosticCode = "unknown_effect_kind"
	// DiagAudioReactive advises that audio-reactive elements were found and
	// will only be honored through the external overlay plan.
	DiagAudioReactive DiagnosticCode = "audio_reactive_experimental"
)

// Diagnostic is a non-fatal finding emitted alongside a successful build.
type Diagnostic struct {
	Code    DiagnosticCode
	Node    string
	Message string
}

func (d Diagnostic) String() string {
	if d.Node == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Code, d.Node, d.Message)
}
