package rules

// Default returns the built-in rule set for spreadsheet packages.
//
// These mirror what a reference producer (Excel) and a generation library
// legitimately disagree on:
//
//   - docProps timestamps and application identity are per-run noise
//   - the calc chain is a cache Excel rebuilds at will
//   - content-type declarations and relationship lists are unordered
//   - shared strings and style records may be emitted in any insertion
//     order as long as the record sets match
//
// Callers must treat the returned set as process-wide immutable
// configuration.
func Default() *Set {
	set, err := NewSet(
		// Volatile document properties.
		Rule{Entry: "docProps/core.xml", Element: "created", Action: ActionSkip},
		Rule{Entry: "docProps/core.xml", Element: "modified", Action: ActionSkip},
		Rule{Entry: "docProps/app.xml", Element: "TotalTime", Action: ActionSkip},
		Rule{Entry: "docProps/app.xml", Element: "Application", Action: ActionSkip},
		Rule{Entry: "docProps/app.xml", Element: "AppVersion", Action: ActionSkip},
		Rule{Entry: "docProps/app.xml", Element: "DocSecurity", Action: ActionSkip},

		// Producer/version fingerprints inside the workbook part.
		Rule{Entry: "xl/workbook.xml", Element: "fileVersion", Action: ActionSkip},
		Rule{Entry: "xl/workbook.xml", Element: "calcPr", Attr: "calcId", Action: ActionSkip},

		// Excel-only caches and previews.
		Rule{Entry: "xl/calcChain.xml", Action: ActionSkip},
		Rule{Entry: "docProps/thumbnail.jpeg", Action: ActionSkip},
		Rule{Entry: "docProps/thumbnail.wmf", Action: ActionSkip},

		// Unordered declaration lists.
		Rule{Entry: "[Content_Types].xml", Element: "Types", Action: ActionSet, Key: KeyCanonical},
		Rule{Entry: "*.rels", Element: "Relationships", Action: ActionSet, Key: KeyCanonical},

		// Insertion-order-tolerant record tables. Shared strings are keyed
		// by their text; style records have no single identifying field,
		// so the whole canonical record is the key.
		Rule{Entry: "xl/sharedStrings.xml", Element: "sst", Action: ActionSet, Key: KeyText},
		Rule{Entry: "xl/styles.xml", Element: "numFmts", Action: ActionSet, Key: KeyCanonical},
		Rule{Entry: "xl/styles.xml", Element: "fonts", Action: ActionSet, Key: KeyCanonical},
		Rule{Entry: "xl/styles.xml", Element: "fills", Action: ActionSet, Key: KeyCanonical},
		Rule{Entry: "xl/styles.xml", Element: "borders", Action: ActionSet, Key: KeyCanonical},
	)
	if err != nil {
		// The built-in rules are validated by tests; a failure here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return set
}
