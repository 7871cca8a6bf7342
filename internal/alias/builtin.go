package alias

// builtinOID2Name maps common urn:oid attribute encodings to their friendly
// names. It covers the eduPerson, standard LDAP, and SCHAC attributes seen in
// federation metadata.
var builtinOID2Name = map[string][]string{
	// eduPerson attributes
	"urn:oid:1.3.6.1.4.1.5923.1.1.1.1":  {"eduPersonAffiliation"},
	"urn:oid:1.3.6.1.4.1.5923.1.1.1.6":  {"eduPersonPrincipalName"},
	"urn:oid:1.3.6.1.4.1.5923.1.1.1.7":  {"eduPersonEntitlement"},
	"urn:oid:1.3.6.1.4.1.5923.1.1.1.9":  {"eduPersonScopedAffiliation"},
	"urn:oid:1.3.6.1.4.1.5923.1.1.1.10": {"eduPersonTargetedID"},

	// Standard LDAP attributes
	"urn:oid:0.9.2342.19200300.100.1.1": {"uid"},
	"urn:oid:0.9.2342.19200300.100.1.3": {"mail"},
	"urn:oid:2.5.4.3":                   {"cn"},
	"urn:oid:2.5.4.4":                   {"sn"},
	"urn:oid:2.5.4.42":                  {"givenName"},
	"urn:oid:2.16.840.1.113730.3.1.241": {"displayName"},

	// SCHAC attributes
	"urn:oid:1.3.6.1.4.1.25178.1.2.9": {"schacHomeOrganization"},
}

// NewBuiltinLoader creates a loader serving the built-in "oid2name" resource
func NewBuiltinLoader() *MapLoader {
	return NewMapLoader(map[string]map[string][]string{
		DefaultResource: builtinOID2Name,
	})
}
