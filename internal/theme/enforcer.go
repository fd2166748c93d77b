package theme

import (
	"context"
	"fmt"
	"log"
)

// Mode is the persisted theme value.
type Mode string

const (
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
)

const (
	// DefaultDarkClass is the body class the host sets in dark mode.
	DefaultDarkClass = "vscode-dark"
	// DarkModeAttribute marks a sub-frame's root element as dark.
	DarkModeAttribute = "data-dark-mode"
	// SettingKey is the persisted key holding the Mode.
	SettingKey = "theme"
)

// Document is the embedding document whose body carries the host theme.
type Document interface {
	BodyHasClass(ctx context.Context, class string) (bool, error)
	Frames(ctx context.Context) ([]Frame, error)
}

// Frame is an embedded sub-frame. Access to its root element may be denied
// (for example across origins), in which case the methods return an error.
type Frame interface {
	SetRootAttribute(ctx context.Context, name, value string) error
	RemoveRootAttribute(ctx context.Context, name string) error
}

// Settings persists simple key/value pairs.
type Settings interface {
	Set(ctx context.Context, key, value string) error
}

// Enforcer reconciles the host theme into the persisted flag and into every
// accessible sub-frame.
type Enforcer struct {
	doc       Document
	settings  Settings
	darkClass string
	verbose   bool
}

// NewEnforcer creates an Enforcer. An empty darkClass means DefaultDarkClass.
func NewEnforcer(doc Document, settings Settings, darkClass string) *Enforcer {
	if darkClass == "" {
		darkClass = DefaultDarkClass
	}
	return &Enforcer{doc: doc, settings: settings, darkClass: darkClass}
}

// SetVerbose enables logging of frames that refused the update.
func (e *Enforcer) SetVerbose(v bool) { e.verbose = v }

// Enforce reads the body class, persists the resulting Mode and applies it
// to every sub-frame. Frames that cannot be updated are skipped.
func (e *Enforcer) Enforce(ctx context.Context) (Mode, error) {
	dark, err := e.doc.BodyHasClass(ctx, e.darkClass)
	if err != nil {
		return "", fmt.Errorf("reading body class: %w", err)
	}

	mode := ModeLight
	if dark {
		mode = ModeDark
	}

	if err := e.settings.Set(ctx, SettingKey, string(mode)); err != nil {
		return mode, fmt.Errorf("persisting theme: %w", err)
	}

	frames, err := e.doc.Frames(ctx)
	if err != nil {
		return mode, fmt.Errorf("listing frames: %w", err)
	}
	for i, f := range frames {
		var ferr error
		if dark {
			ferr = f.SetRootAttribute(ctx, DarkModeAttribute, "")
		} else {
			ferr = f.RemoveRootAttribute(ctx, DarkModeAttribute)
		}
		if ferr != nil && e.verbose {
			log.Printf("theme: frame %d not updated: %v", i, ferr)
		}
	}

	return mode, nil
}
