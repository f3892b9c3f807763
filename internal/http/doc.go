// Package http exposes the document, demo request and blog services as a
// JSON API.
//
// Serverless-compatible function routes accept any method and answer 405
// JSON themselves:
//   - /.netlify/functions/uploadDocx (POST)
//   - /.netlify/functions/getDocxContents (GET)
//   - /.netlify/functions/sendEmail (POST)
//
// REST routes mount under /api:
//   - /documents, /documents/{name}
//   - /demo-requests
//   - /blog/posts, /blog/posts/{slug}, /blog/recent, /blog/tags, /blog/stats, /blog/reload
//
// /healthz and /metrics are registered alongside.
package http
