// Package light defines the lighting configuration types shared across the
// planning pipeline and the device command payloads derived from them.
//
// A Config describes the desired state of a controller: power, master
// brightness, and one or more segments each carrying colors, an effect, and
// effect parameters. Configs are value-oriented; code that needs to modify
// one takes a Clone first.
package light
