// Package extraction reads the interactive form (AcroForm) of a PDF document
// into a flat list of field descriptors.
/*
PDF Form Field Walk

## Structure

1. **Document Catalog**: holds the optional AcroForm entry
2. **AcroForm Dictionary**: holds the Fields array of root fields
3. **Field Dictionaries**: terminal fields (no Kids) carry values, non-terminal
   fields group their Kids; widget annotations may appear as Kids too

## Entries read per field (PDF 1.7 Table 220, 228, 231)

- T: partial field name (text string)
- FT: field type (Btn, Tx, Ch, Sig), NOT inherited here
- MaxLen: maximum text length (text fields)
- DV: default value (text string, name or array)
- Ff: field flags bitmask
- Opt: options; an entry is either a text string or an [export display] pair,
  the display string is used
- Kids: child fields or widgets

## Field Flags (Ff)

Bit positions are 0-based here (the PDF reference numbers them from 1):

	0  ReadOnly         12 Password        15 DoNotScroll
	1  Required         13 FileSelect      17 Comb
	                    14 DoNotSpellCheck

Other bits (NoExport, Multiline, Radio, Pushbutton, Combo, ...) are not
reported and are ignored without error.

## Output

WalkFields emits one FieldDescriptor per node in pre-order: a parent is
appended before all of its descendants, and is emitted in addition to them.
An attribute missing from the dictionary is omitted from the descriptor.

The historical behaviour treated a zero Ff (and a zero MaxLen or empty DV) as
if the entry were missing. WithLegacyFlagQuirk reproduces that; by default a
present Ff of 0 yields an empty, present flag list.
*/
package extraction
