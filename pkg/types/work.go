// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// Work is the bibliographic record Crossref returns for a DOI. The typed
// fields cover what exa reports; Message keeps the full payload.
type Work struct {
	DOI       string    `json:"doi" yaml:"doi"`
	Title     string    `json:"title" yaml:"title"`
	Authors   []string  `json:"authors" yaml:"authors"`
	Publisher string    `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Container string    `json:"container_title,omitempty" yaml:"container_title,omitempty"`
	Issued    time.Time `json:"issued,omitzero" yaml:"issued,omitempty"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`

	// Message is the raw "message" object from the Crossref response.
	Message json.RawMessage `json:"message" yaml:"-"`
}

// WorkSet is the on-disk form of a resolve run (works.json). A nil entry
// marks a DOI that could not be resolved.
type WorkSet struct {
	Works map[string]json.RawMessage `json:"works" yaml:"works"`
}
