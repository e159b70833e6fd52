// Package opc reads OOXML-style packages: zip containers holding the XML
// parts and binary assets of a spreadsheet document.
//
// A Package is an ordered set of named entries. Entry bytes are retrieved
// lazily, one entry at a time, so large binary assets are only decompressed
// when a comparison actually needs them. The zip handle is held for the
// lifetime of the Package and released by Close.
package opc
