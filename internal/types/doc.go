/*
Package types defines the data shapes shared across reqflow.

# Requests

HttpRequest is the full editable state of a request: method, URL, ordered
header and query rows, body (raw, json, form-urlencoded, form-data or binary),
auth settings, extraction rules and transport settings. The same value is used
as the editor's revision snapshot, so Clone must deep-copy every field that a
caller could mutate.

Header, query and form rows keep their order. Duplicate keys are legal and are
sent in order.

# Results

RequestResult is what one execution produces. A StatusCode of 0 means the
request never got a response; Error then describes why.

# Collections and environments

Collection and Folder form the request tree. EnvironmentFile holds the named
environments of a collection; variable values are arbitrary JSON/YAML values
and are stringified when a variable context is built.

Example collection:

	{
	  "id": "c1",
	  "name": "Users API",
	  "folders": [{
	    "id": "f1",
	    "name": "smoke",
	    "requests": [{
	      "id": "r1",
	      "name": "List users",
	      "method": "GET",
	      "url": "{{baseUrl}}/users",
	      "headers": [{"key": "Authorization", "value": "Bearer ${token}"}]
	    }]
	  }]
	}
*/
package types
