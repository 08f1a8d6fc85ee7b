// Package main provides the entry point for the doorkeep member management
// service. It bridges a member-management application's authentication model
// to an Active-Directory-like LDAP store, caches resolved directory entries
// per principal GUID, and answers physical-access queries (RFID tag to
// resource authorization) from locally persisted mappings. The application
// uses gorm for local persistence and exposes a small machine-facing HTTP
// boundary for door controllers.
package main
