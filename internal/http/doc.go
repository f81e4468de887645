// Package http exposes the editor and admin JSON API.
//
// Routes mount under /api:
//   - Schemas: /schemas, /schema/{id}, /schema/{id}/form, /forms/{id}/assemble
//   - Published pages: /pages, /page/{title}
//   - Drafts: /staging/pages, /staging/page/{title}
//   - Promotion: /staging/promote, /staging/promotions, /staging/promotions/{id}/resume
//   - Admin: /admin/pages, /admin/users, /admin/allowed-emails
//   - Tags and uploads: /tags, /upload
//   - Accounts: /auth/claims, /auth/invite, /auth/register
//   - Self description: /openapi.json
//
// Claims are read from a bearer token or the session cookie by the handler
// returned from API.Handler.
package http
