/*
Package executor sends one rendered request over HTTP.

# Overview

Execute takes a request whose variables have already been rendered and
returns a RequestResult. Transport problems never surface as Go errors:
they are folded into RequestResult.Error with StatusCode 0, so callers can
classify every outcome the same way.

# Body Modes

  - raw: the body text as-is
  - json: the body text, with Content-Type application/json added when the
    body is valid JSON and no Content-Type row exists
  - form-urlencoded: enabled form rows, in row order
  - form-data: multipart; file rows read FilePath or decode FileInline (base64)
  - binary: the file at Binary.FilePath or the decoded Binary.FileInline

# Timeouts and TLS

Each request runs under its own deadline (TimeoutSeconds, default 30s) on top
of the caller's context. Certificate verification follows VerifySSL.
*/
package executor
