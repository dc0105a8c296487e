package rdf

import "strings"

// Namespace IRIs.
const (
	// Namespace is the RDF syntax namespace.
	Namespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// RDFSNamespace is the RDF Schema namespace.
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"

	// XSDNamespace is the XML Schema datatypes namespace.
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

// Type is the rdf:type predicate.
const Type = Namespace + "type"

// Datatype IRIs recognised by the projection engine.
const (
	LangString = Namespace + "langString"
	Resource   = RDFSNamespace + "Resource"

	XSDString   = XSDNamespace + "string"
	XSDBoolean  = XSDNamespace + "boolean"
	XSDDate     = XSDNamespace + "date"
	XSDDateTime = XSDNamespace + "dateTime"
	XSDInt      = XSDNamespace + "int"
	XSDLong     = XSDNamespace + "long"
	XSDFloat    = XSDNamespace + "float"
	XSDDouble   = XSDNamespace + "double"
	XSDAnyURI   = XSDNamespace + "anyURI"
)

// Type tags written into projected documents.
const (
	TagLangString = "rdf:langString"
	TagResource   = "rdfs:Resource"
	TagString     = "xsd:string"
	TagBoolean    = "xsd:boolean"
	TagDate       = "xsd:date"
	TagDateTime   = "xsd:dateTime"
	TagInt        = "xsd:int"
	TagLong       = "xsd:long"
	TagFloat      = "xsd:float"
	TagDouble     = "xsd:double"
	TagAnyURI     = "xsd:anyURI"
)

// DefaultPrefixes returns the standard namespace prefixes.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  Namespace,
		"rdfs": RDFSNamespace,
		"xsd":  XSDNamespace,
		"owl":  "http://www.w3.org/2002/07/owl#",
		"skos": "http://www.w3.org/2004/02/skos/core#",
		"dc":   "http://purl.org/dc/terms/",
		"prov": "http://www.w3.org/ns/prov#",
	}
}

// Expand turns a prefixed name such as "xsd:string" into a full IRI using
// prefixes. Values that are already IRIs, or whose prefix is unknown, are
// returned unchanged.
func Expand(value string, prefixes map[string]string) string {
	if strings.Contains(value, "://") || strings.HasPrefix(value, "urn:") {
		return value
	}
	prefix, local, ok := strings.Cut(value, ":")
	if !ok {
		return value
	}
	ns, known := prefixes[prefix]
	if !known {
		return value
	}
	return ns + local
}

// Compact turns a full IRI into a prefixed name using the longest matching
// namespace in prefixes. IRIs outside every namespace are returned unchanged.
func Compact(iri string, prefixes map[string]string) string {
	best := ""
	bestNS := ""
	for prefix, ns := range prefixes {
		if !strings.HasPrefix(iri, ns) {
			continue
		}
		// Longest namespace wins; ties broken on prefix for stable output.
		if len(ns) > len(bestNS) || (len(ns) == len(bestNS) && prefix < best) {
			best = prefix
			bestNS = ns
		}
	}
	if bestNS == "" {
		return iri
	}
	return best + ":" + iri[len(bestNS):]
}
