package database

import (
	"sort"
)

// Node is a content item with its translations and ordered section references
type Node struct {
	ID              int64 // 0 until the node has been saved
	Type            string
	DefaultLangcode string
	RevisionID      int64
	Sections        []SectionRef // ordered content-block references
	Translations    map[string]*NodeTranslation
}

// SectionRef points at a content block revision embedded in a node
type SectionRef struct {
	BlockID    int64
	RevisionID int64
}

type NodeTranslation struct {
	Langcode        string
	Title           string
	ThumbnailFileID *int64 // direct thumbnail file reference
	ComputedImage   FormattedText
}

// FormattedText is a rich-text field value with its text format
type FormattedText struct {
	Value  string
	Format string
}

// SaveOptions controls how a node translation is persisted
type SaveOptions struct {
	NewRevision bool
}

// Translation returns the translation for langcode, or nil.
func (n *Node) Translation(langcode string) *NodeTranslation {
	if n.Translations == nil {
		return nil
	}
	return n.Translations[langcode]
}

// Langcodes returns the translation languages, default language first.
func (n *Node) Langcodes() []string {
	langcodes := make([]string, 0, len(n.Translations))
	for lc := range n.Translations {
		if lc != n.DefaultLangcode {
			langcodes = append(langcodes, lc)
		}
	}
	sort.Strings(langcodes)
	if _, ok := n.Translations[n.DefaultLangcode]; ok {
		langcodes = append([]string{n.DefaultLangcode}, langcodes...)
	}
	return langcodes
}

// Block is a content block loaded at a specific revision
type Block struct {
	ID              int64
	RevisionID      int64
	Type            string
	DefaultLangcode string
	Translatable    bool
	Translations    map[string]*BlockTranslation
}

type BlockTranslation struct {
	Langcode         string
	Type             string
	BackgroundFileID *int64
}

// Translation returns the block values for langcode. Untranslatable blocks
// and missing translations fall back to the default language.
func (b *Block) Translation(langcode string) *BlockTranslation {
	if b.Translations == nil {
		return nil
	}
	if b.Translatable {
		if tr, ok := b.Translations[langcode]; ok {
			return tr
		}
	}
	return b.Translations[b.DefaultLangcode]
}

// RevisionRef maps a block to its latest revision
type RevisionRef struct {
	RevisionID int64
	BlockID    int64
}

type File struct {
	ID       int64
	URI      string
	Filename string
	MimeType string
	Size     int64
}
