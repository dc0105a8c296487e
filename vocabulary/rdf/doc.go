// Package rdf provides the RDF, RDFS and XSD vocabulary used by the projection
// engine: namespace IRIs, the datatype IRIs that select a literal's type tag,
// and prefix compaction for the tags written into projected documents.
//
// # Type Tags
//
// Projected documents key every literal value by a short, stable type tag:
//
//	rdf:langString  language-tagged string
//	xsd:string      plain string
//	xsd:boolean     boolean
//	xsd:date        date (yyyy-MM-dd)
//	xsd:dateTime    date and time, normalised to UTC
//	xsd:int         32-bit integer
//	xsd:long        64-bit integer
//	xsd:float       32-bit float
//	xsd:double      64-bit float
//	xsd:anyURI      URI-valued literal
//	rdfs:Resource   URI node used as a data value
//
// Literals of any other datatype are keyed by the full datatype IRI.
package rdf
