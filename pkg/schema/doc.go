// Package schema defines the UI description documents an extension host pushes
// to the panel. A Document is an ordered list of field rows plus an optional
// legacy button group; each Field carries a closed FieldType that renderers
// switch on. Decoding is lenient at the field level so that one malformed
// field never prevents the rest of a document from rendering; Validate
// reports every problem at once.
package schema
