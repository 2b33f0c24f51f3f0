// Package variables finds and substitutes template variables in request
// fields.
//
// Two placeholder syntaxes are recognised and may be mixed in one string:
//
//	{{baseUrl}}/users/${userId}
//
// Surrounding whitespace inside the braces is ignored. A placeholder preceded
// by a backslash (\{{name}}) is written out literally without the backslash.
//
// Resolution is a pure lookup in a Context. A missing key is not an error: it
// is reported back as data so the caller can flag it before sending. Keys
// starting with "$" ($uuid, $timestamp, $randomInt) are generated at send
// time by ExpandDynamic and are never reported as missing for a request.
package variables
