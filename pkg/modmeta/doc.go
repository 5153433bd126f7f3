// SPDX-License-Identifier: MPL-2.0

// Package modmeta parses a mod's About/About.xml descriptor into an immutable
// Descriptor.
//
// Package identifiers are canonicalized once, at parse time, into PackageID
// (Unicode case folded, surrounding whitespace removed). Everything downstream
// compares PackageID values and never the raw strings found in the XML.
//
// Loading is tolerant: missing optional elements take defaults and unknown
// elements are ignored. A file that is not well-formed XML, or that lacks a
// packageId, fails the whole mod with a *ParseError; callers decide whether that
// is fatal (the registry never treats it as such).
package modmeta
